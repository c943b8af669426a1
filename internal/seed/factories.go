package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"oneiro/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password shared by all seeded accounts.
const DemoPassword = "password123"

var (
	emotionPool = []string{
		"joy", "fear", "anxiety", "wonder", "sadness",
		"peace", "confusion", "excitement", "nostalgia", "relief",
	}

	archetypePool = []string{
		"그림자", "아니마", "아니무스", "페르소나", "자기",
		"현자", "영웅", "위대한 어머니", "트릭스터",
	}

	dreamSymbols = []string{
		"water", "flight", "falling", "house", "door", "mirror",
		"forest", "ocean", "snake", "bridge", "staircase", "fire",
		"moon", "train", "labyrinth", "key",
	}

	genders = []string{"male", "female", "other", ""}
)

// Factory builds domain entities with generated content. Persistence is
// left to the Seeder so the same builders serve presets and tests.
type Factory struct {
	opts Options
	// hash of DemoPassword, computed once
	demoHash string
}

// NewFactory creates a new Factory.
func NewFactory(opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{opts: opts}
}

// BuildUser constructs a sample user. Optional override functions may
// modify the generated user before it is returned.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	user := &models.User{
		Username:  strings.ToLower(gofakeit.Username()),
		Nickname:  gofakeit.FirstName(),
		Email:     gofakeit.Email(),
		BirthDate: gofakeit.DateRange(
			time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
		).Format("2006-01-02"),
		Gender: genders[r.Intn(len(genders))],
	}

	if f.opts.SkipBcrypt {
		user.PasswordHash = DemoPassword
	} else {
		hash, err := f.demoPasswordHash()
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// BuildDream constructs a sample dream for the given user with a date
// spread over the past year.
func (f *Factory) BuildDream(userID int64) *models.Dream {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	when := gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())

	emotions := make([]string, 0, 3)
	for _, idx := range r.Perm(len(emotionPool))[:1+r.Intn(3)] {
		emotions = append(emotions, emotionPool[idx])
	}

	symbol := dreamSymbols[r.Intn(len(dreamSymbols))]
	return &models.Dream{
		UserID:   userID,
		Date:     when.Format("2006-01-02"),
		Title:    fmt.Sprintf("A dream about %s", symbol),
		Content:  gofakeit.Paragraph(1, 3, 8, " "),
		Emotions: emotions,
	}
}

// BuildAnalysis constructs a plausible Jungian reading for a dream.
func (f *Factory) BuildAnalysis(dreamID int64) *models.Analysis {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	archetypes := make([]string, 0, 2)
	for _, idx := range r.Perm(len(archetypePool))[:1+r.Intn(2)] {
		archetypes = append(archetypes, archetypePool[idx])
	}

	symbols := make(map[string]string, 2)
	for _, idx := range r.Perm(len(dreamSymbols))[:1+r.Intn(2)] {
		symbols[dreamSymbols[idx]] = gofakeit.Sentence(8)
	}

	return &models.Analysis{
		DreamID:            dreamID,
		Interpretation:     gofakeit.Paragraph(1, 2, 10, " "),
		Archetypes:         archetypes,
		Symbols:            symbols,
		PsychologicalState: gofakeit.Sentence(6),
	}
}

// BuildComment constructs a comment on the given dream, optionally as a
// reply to parentID.
func (f *Factory) BuildComment(dreamID, userID int64, parentID *int64) *models.Comment {
	return &models.Comment{
		DreamID:  dreamID,
		UserID:   userID,
		ParentID: parentID,
		Content:  gofakeit.Sentence(8),
	}
}

// BuildPost constructs a bulletin board post for the given author.
func (f *Factory) BuildPost(userID int64) *models.Post {
	return &models.Post{
		UserID:  userID,
		Title:   gofakeit.Sentence(5),
		Content: gofakeit.Paragraph(1, 3, 6, "\n"),
	}
}

func (f *Factory) demoPasswordHash() (string, error) {
	if f.demoHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.demoHash = string(hash)
	}
	return f.demoHash, nil
}
