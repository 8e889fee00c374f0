package catalog

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/flyerhub/internal/domain/model"
)

// seedFlyer is the YAML shape of one seed entry. Timestamps are decoded
// loosely because the YAML parser may hand back either strings or times.
type seedFlyer struct {
	ID           string  `koanf:"id"`
	Title        string  `koanf:"title"`
	Description  string  `koanf:"description"`
	BusinessName string  `koanf:"businessName"`
	UserID       string  `koanf:"userId"`
	ImageURL     string  `koanf:"imageUrl"`
	Category     string  `koanf:"category"`
	Latitude     float64 `koanf:"latitude"`
	Longitude    float64 `koanf:"longitude"`
	Address      string  `koanf:"address"`
	CreatedAt    any     `koanf:"createdAt"`
	ExpiresAt    any     `koanf:"expiresAt"`
	Views        int     `koanf:"views"`
	Reactions    int     `koanf:"reactions"`
	IsTrending   bool    `koanf:"isTrending"`
	Discount     string  `koanf:"discount"`
	CouponCode   string  `koanf:"couponCode"`
}

// LoadSeed reads the flyers listed under the top-level "flyers" key of the
// YAML file at path. Entries must carry an id, a known category and a valid
// location.
func LoadSeed(path string) ([]model.Flyer, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSeedFile, path, err)
	}

	var seeds []seedFlyer
	if err := k.UnmarshalWithConf("flyers", &seeds, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSeedFile, path, err)
	}

	out := make([]model.Flyer, 0, len(seeds))
	for i, s := range seeds {
		f, err := s.flyer()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (s seedFlyer) flyer() (model.Flyer, error) {
	if s.ID == "" {
		return model.Flyer{}, fmt.Errorf("%w: id is required", model.ErrInvalidArgument)
	}
	category, err := model.ParseCategory(s.Category)
	if err != nil {
		return model.Flyer{}, err
	}
	coord := model.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
	if err := coord.Validate(); err != nil {
		return model.Flyer{}, err
	}
	createdAt, err := seedTime(s.CreatedAt)
	if err != nil {
		return model.Flyer{}, fmt.Errorf("createdAt: %w", err)
	}
	expiresAt, err := seedTime(s.ExpiresAt)
	if err != nil {
		return model.Flyer{}, fmt.Errorf("expiresAt: %w", err)
	}
	return model.Flyer{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		BusinessName: s.BusinessName,
		UserID:       s.UserID,
		ImageURL:     s.ImageURL,
		Category:     category,
		Location:     model.Location{Coordinate: coord, Address: s.Address},
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		Views:        s.Views,
		Reactions:    s.Reactions,
		IsTrending:   s.IsTrending,
		Discount:     s.Discount,
		CouponCode:   s.CouponCode,
	}, nil
}

func seedTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: unsupported time value %v", model.ErrInvalidArgument, v)
}
