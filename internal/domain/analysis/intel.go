package analysis

// BuildClientIntel aggregates completed records that carry a known risk level.
// Returns nil when nothing usable exists, so callers can skip the history
// directive entirely.
func BuildClientIntel(name string, records []*Record) *ClientIntel {
	intel := &ClientIntel{
		Name:         name,
		Distribution: map[RiskLevel]int{},
	}

	var scoreSum int
	for _, r := range records {
		if r.Status != StatusCompleted || r.RiskLevel == "" {
			continue
		}
		intel.TotalProjects++
		intel.Distribution[r.RiskLevel]++
		if r.RiskLevel == RiskHigh {
			intel.HighRiskCount++
		}
		if r.RiskScore != nil {
			scoreSum += *r.RiskScore
		}
		if r.UpdatedAt.After(intel.LastProjectDate) {
			intel.LastProjectDate = r.UpdatedAt
		}
	}

	if intel.TotalProjects == 0 {
		return nil
	}
	intel.AvgRiskScore = float64(scoreSum) / float64(intel.TotalProjects)
	return intel
}
