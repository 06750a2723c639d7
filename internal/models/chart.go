package models

// ChartData is one labeled bucket of a chart series.
type ChartData struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MatchSales counts sold tickets for one match.
type MatchSales struct {
	MatchName string `json:"matchName"`
	Count     int    `json:"count"`
}

// DashboardStats is the fan-out result for the admin dashboard.
type DashboardStats struct {
	TicketsByStatus      []ChartData  `json:"tickets_by_status"`
	RevenueByMonth       []ChartData  `json:"revenue_by_month"`
	MatchesByCompetition []ChartData  `json:"matches_by_competition"`
	TicketsSoldPerMatch  []MatchSales `json:"tickets_sold_per_match"`
	TotalTicketsSold     int          `json:"total_tickets_sold"`
	TotalRevenue         float64      `json:"total_revenue"`
	UpcomingMatches      int          `json:"upcoming_matches"`
}

// SubscriptionStats groups subscriptions by plan and by team.
type SubscriptionStats struct {
	ByPlan             []ChartData `json:"by_plan"`
	ByTeam             []ChartData `json:"by_team"`
	TotalSubscriptions int         `json:"total_subscriptions"`
	TotalRevenue       float64     `json:"total_revenue"`
}
