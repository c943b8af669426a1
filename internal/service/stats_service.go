package service

import (
	"context"
	"strconv"
	"time"

	"oneiro/internal/repository"
)

// Stats buckets use the product's original Korean labels; gender input
// is normalized from both Korean and English spellings.
const (
	genderMale    = "남성"
	genderFemale  = "여성"
	genderOther   = "기타"
	bucketUnknown = "미상"

	ageUnder20 = "10대 이하"
	age20s     = "20대"
	age30s     = "30대"
	age40s     = "40대"
	age50Plus  = "50대 이상"
)

// Overview holds platform-wide totals.
type Overview struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalDreams   int64 `json:"totalDreams"`
	TotalAnalyses int64 `json:"totalAnalyses"`
}

// DetailedStats holds the demographic breakdown of registered users.
type DetailedStats struct {
	GenderStats map[string]int `json:"genderStats"`
	AgeStats    map[string]int `json:"ageStats"`
}

// StatsService computes admin statistics from user demographics.
type StatsService struct {
	userRepo     repository.UserRepository
	dreamRepo    repository.DreamRepository
	analysisRepo repository.AnalysisRepository
	now          func() time.Time
}

func NewStatsService(
	userRepo repository.UserRepository,
	dreamRepo repository.DreamRepository,
	analysisRepo repository.AnalysisRepository,
) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		dreamRepo:    dreamRepo,
		analysisRepo: analysisRepo,
		now:          time.Now,
	}
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	dreams, err := s.dreamRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	analyses, err := s.analysisRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{TotalUsers: users, TotalDreams: dreams, TotalAnalyses: analyses}, nil
}

func (s *StatsService) Detailed(ctx context.Context) (*DetailedStats, error) {
	demographics, err := s.userRepo.Demographics(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DetailedStats{
		GenderStats: map[string]int{genderMale: 0, genderFemale: 0, genderOther: 0, bucketUnknown: 0},
		AgeStats:    map[string]int{ageUnder20: 0, age20s: 0, age30s: 0, age40s: 0, age50Plus: 0, bucketUnknown: 0},
	}
	currentYear := s.now().Year()

	for _, d := range demographics {
		stats.GenderStats[genderBucket(d.Gender)]++
		stats.AgeStats[ageBucket(d.BirthDate, currentYear)]++
	}
	return stats, nil
}

func genderBucket(gender string) string {
	switch gender {
	case genderMale, "male", "M":
		return genderMale
	case genderFemale, "female", "F":
		return genderFemale
	case genderOther, "other":
		return genderOther
	default:
		return bucketUnknown
	}
}

// ageBucket derives the age band from a YYYY-MM-DD birth date. Any
// unparsable date counts as unknown.
func ageBucket(birthDate string, currentYear int) string {
	if len(birthDate) < 4 {
		return bucketUnknown
	}
	birthYear, err := strconv.Atoi(birthDate[:4])
	if err != nil || birthYear <= 0 {
		return bucketUnknown
	}
	age := currentYear - birthYear
	switch {
	case age < 20:
		return ageUnder20
	case age < 30:
		return age20s
	case age < 40:
		return age30s
	case age < 50:
		return age40s
	default:
		return age50Plus
	}
}
