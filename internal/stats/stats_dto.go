package stats

type SummaryResponse struct {
	TotalWorkers      int64 `json:"totalWorkers"`
	IDsGeneratedToday int64 `json:"idsGeneratedToday"`
}

type DepartmentBreakdown struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
	Percentage string `json:"percentage"`
}
