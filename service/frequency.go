package service

import "fincentiva-api/domain"

// FrequencyProfile holds the static economics of a payment frequency.
type FrequencyProfile struct {
	Frequency      domain.PaymentFrequency
	PeriodsPerYear int
	// CandidateTerms approximate 12, 9 and 6 months, longest first.
	CandidateTerms [3]int
}

var frequencyProfiles = map[domain.PaymentFrequency]FrequencyProfile{
	domain.Weekly:      {Frequency: domain.Weekly, PeriodsPerYear: 52, CandidateTerms: [3]int{52, 40, 28}},
	domain.Biweekly:    {Frequency: domain.Biweekly, PeriodsPerYear: 24, CandidateTerms: [3]int{24, 18, 12}},
	domain.Fortnightly: {Frequency: domain.Fortnightly, PeriodsPerYear: 26, CandidateTerms: [3]int{26, 20, 14}},
	domain.Monthly:     {Frequency: domain.Monthly, PeriodsPerYear: 12, CandidateTerms: [3]int{12, 9, 6}},
}

var periodLabels = map[domain.PaymentFrequency]string{
	domain.Weekly:      "semanas",
	domain.Biweekly:    "quincenas",
	domain.Fortnightly: "catorcenas",
}

// ResolveFrequency returns the profile for f. Unknown values resolve to the
// monthly profile and known is false.
func ResolveFrequency(f domain.PaymentFrequency) (profile FrequencyProfile, known bool) {
	profile, known = frequencyProfiles[f]
	if !known {
		return frequencyProfiles[domain.Monthly], false
	}
	return profile, true
}

// PeriodLabel is the plural Spanish unit shown next to the number of periods.
func PeriodLabel(f domain.PaymentFrequency) string {
	if label, ok := periodLabels[f]; ok {
		return label
	}
	return "meses"
}
