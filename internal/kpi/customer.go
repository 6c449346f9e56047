package kpi

import (
	dp "opsdash/internal/dataprocessing"
)

const (
	custID          = "customer_id"
	custType        = "customer_type"
	custGallons     = "consumption_gallons"
	custBill        = "bill_amount_usd"
	custPayment     = "payment_status"
	cmpDate         = "complaint_date"
	cmpType         = "complaint_type"
	cmpPriority     = "priority"
	cmpStatus       = "status"
	cmpResolution   = "resolution_hours"
	cmpSatisfied    = "customer_satisfied"
	statusOpen      = "Open"
	statusResolved  = "Resolved"
	statusClosed    = "Closed"
	paymentPaid     = "Paid"
	paymentOverdue  = "Overdue"
	answerSatisfied = "Yes"
)

// CustomerSummary combines billing and complaint figures.
type CustomerSummary struct {
	TotalCustomers    int     `json:"totalCustomers"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AvgConsumption    float64 `json:"avgConsumption"`
	OverdueAmount     float64 `json:"overdueAmount"`
	CollectionRate    float64 `json:"collectionRate"`
	TotalComplaints   int     `json:"totalComplaints"`
	OpenComplaints    int     `json:"openComplaints"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
	SatisfactionRate  float64 `json:"satisfactionRate"`
}

// CustomerTypeBreakdown summarises billing for one customer type.
type CustomerTypeBreakdown struct {
	Type             string  `json:"type"`
	Customers        int     `json:"customers"`
	TotalConsumption float64 `json:"totalConsumption"`
	TotalRevenue     float64 `json:"totalRevenue"`
	AvgBill          float64 `json:"avgBill"`
}

// ComplaintTypeBreakdown summarises complaints of one type.
type ComplaintTypeBreakdown struct {
	Type              string  `json:"type"`
	Count             int     `json:"count"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
	SatisfactionRate  float64 `json:"satisfactionRate"`
}

// ComplaintPriorityBreakdown summarises complaints of one priority.
type ComplaintPriorityBreakdown struct {
	Priority          string  `json:"priority"`
	Count             int     `json:"count"`
	Open              int     `json:"open"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
}

// ComplaintsMonth is one point of the monthly complaints trend.
type ComplaintsMonth struct {
	Month    string `json:"month"`
	Total    int    `json:"total"`
	Open     int    `json:"open"`
	Resolved int    `json:"resolved"`
}

// isResolved marks complaints that carry a resolution time.
func isResolved(r dp.Record) bool { return r.Truthy(cmpResolution) }

// CalculateCustomer computes billing and complaint KPIs. The whole summary
// is zero when there are no consumption records, whatever the complaints.
//
// Collection rate is the paid share of the billed amount. Satisfaction is
// the share of resolved complaints answered "Yes".
func CalculateCustomer(consumption, complaints dp.Dataset) CustomerSummary {
	if len(consumption) == 0 {
		return CustomerSummary{}
	}

	totalBilled := dp.Sum(consumption, custBill)
	paid := dp.Sum(dp.Filter(consumption, dp.FieldEquals(custPayment, paymentPaid)), custBill)
	resolved := dp.Filter(complaints, isResolved)
	satisfied := dp.CountWhere(resolved, dp.FieldEquals(cmpSatisfied, answerSatisfied))

	return CustomerSummary{
		TotalCustomers:    len(dp.UniqueValues(consumption, custID)),
		TotalRevenue:      totalBilled,
		AvgConsumption:    dp.Average(consumption, custGallons),
		OverdueAmount:     dp.Sum(dp.Filter(consumption, dp.FieldEquals(custPayment, paymentOverdue)), custBill),
		CollectionRate:    percentOf(paid, totalBilled),
		TotalComplaints:   len(complaints),
		OpenComplaints:    dp.CountWhere(complaints, dp.FieldEquals(cmpStatus, statusOpen)),
		AvgResolutionTime: dp.Average(resolved, cmpResolution),
		SatisfactionRate:  dp.Rate(satisfied, len(resolved)),
	}
}

// CustomersByType returns one row per customer type.
func CustomersByType(consumption dp.Dataset) []CustomerTypeBreakdown {
	out := []CustomerTypeBreakdown{}
	for _, g := range dp.GroupBy(consumption, custType) {
		out = append(out, CustomerTypeBreakdown{
			Type:             groupLabel(g),
			Customers:        len(dp.UniqueValues(g.Records, custID)),
			TotalConsumption: dp.Sum(g.Records, custGallons),
			TotalRevenue:     dp.Sum(g.Records, custBill),
			AvgBill:          dp.Average(g.Records, custBill),
		})
	}
	return out
}

// ComplaintsByType returns one row per complaint type. Satisfaction here is
// "Yes" over every complaint with any satisfaction answer, Pending included.
func ComplaintsByType(complaints dp.Dataset) []ComplaintTypeBreakdown {
	out := []ComplaintTypeBreakdown{}
	for _, g := range dp.GroupBy(complaints, cmpType) {
		answered := dp.CountWhere(g.Records, func(r dp.Record) bool { return r.Truthy(cmpSatisfied) })
		out = append(out, ComplaintTypeBreakdown{
			Type:              groupLabel(g),
			Count:             len(g.Records),
			AvgResolutionTime: dp.Average(dp.Filter(g.Records, isResolved), cmpResolution),
			SatisfactionRate:  dp.Rate(dp.CountWhere(g.Records, dp.FieldEquals(cmpSatisfied, answerSatisfied)), answered),
		})
	}
	return out
}

// ComplaintsByPriority returns one row per priority.
func ComplaintsByPriority(complaints dp.Dataset) []ComplaintPriorityBreakdown {
	out := []ComplaintPriorityBreakdown{}
	for _, g := range dp.GroupBy(complaints, cmpPriority) {
		out = append(out, ComplaintPriorityBreakdown{
			Priority:          groupLabel(g),
			Count:             len(g.Records),
			Open:              dp.CountWhere(g.Records, dp.FieldEquals(cmpStatus, statusOpen)),
			AvgResolutionTime: dp.Average(dp.Filter(g.Records, isResolved), cmpResolution),
		})
	}
	return out
}

// ComplaintsTrend returns monthly complaint counts. Resolved covers both
// the Resolved and Closed statuses.
func ComplaintsTrend(complaints dp.Dataset) []ComplaintsMonth {
	out := []ComplaintsMonth{}
	for _, b := range dp.AggregateByMonth(complaints, cmpDate) {
		out = append(out, ComplaintsMonth{
			Month: b.Key,
			Total: b.Count,
			Open:  dp.CountWhere(b.Records, dp.FieldEquals(cmpStatus, statusOpen)),
			Resolved: dp.CountWhere(b.Records, func(r dp.Record) bool {
				return r.Is(cmpStatus, statusResolved) || r.Is(cmpStatus, statusClosed)
			}),
		})
	}
	return out
}
