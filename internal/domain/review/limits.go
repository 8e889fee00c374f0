package review

// Bounds applied to incoming reviews.
const (
	MinRating = 1
	MaxRating = 5

	// DefaultMaxCommentLength is measured in runes.
	DefaultMaxCommentLength = 500
)
