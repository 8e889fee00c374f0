package model

// QuotaState is a user's free-posting accounting.
// LastPostingMonth is a 0-11 calendar month index.
type QuotaState struct {
	MonthlyPostingCount int  `json:"monthlyPostingCount"`
	LastPostingMonth    int  `json:"lastPostingMonth"`
	LastPostingYear     int  `json:"lastPostingYear"`
	IsPremium           bool `json:"isPremium"`
}
