// Package seed provides database seeding utilities for development and
// testing. It writes through the repository layer so seeded data obeys
// the same rules as data created through the API.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"oneiro/internal/models"
	"oneiro/internal/repository"
	"oneiro/internal/store"
)

// Options configuration for the seeder
type Options struct {
	NumUsers  int
	NumDreams int
	// ShareRatio is the fraction of dreams flipped public, 0..1.
	ShareRatio float64
	// SkipBcrypt stores the demo password in plain text. Login will not
	// work for those users, but seeding thousands of them is much faster.
	SkipBcrypt bool
}

// presets are named seeding profiles selectable from the CLI.
var presets = map[string]Options{
	"Cozy":     {NumUsers: 10, NumDreams: 40, ShareRatio: 0.5},
	"Standard": {NumUsers: 50, NumDreams: 300, ShareRatio: 0.3},
	"Mega":     {NumUsers: 500, NumDreams: 5000, ShareRatio: 0.25, SkipBcrypt: true},
}

// Seeder populates the database with generated journal data.
type Seeder struct {
	db        store.Store
	users     repository.UserRepository
	dreams    repository.DreamRepository
	analyses  repository.AnalysisRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	posts     repository.PostRepository
	factory   *Factory
}

// NewSeeder creates a Seeder bound to the provided store.
func NewSeeder(db store.Store, opts Options) *Seeder {
	return &Seeder{
		db:        db,
		users:     repository.NewUserRepository(db),
		dreams:    repository.NewDreamRepository(db),
		analyses:  repository.NewAnalysisRepository(db),
		comments:  repository.NewCommentRepository(db),
		reactions: repository.NewReactionRepository(db),
		posts:     repository.NewPostRepository(db),
		factory:   NewFactory(opts),
	}
}

// ApplyPreset runs a named seeding profile.
func (s *Seeder) ApplyPreset(ctx context.Context, name string) error {
	opts, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	s.factory.opts = opts
	return s.Run(ctx, opts)
}

// Run seeds users, their journals and the community surface.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	log.Printf("🌱 Seeding %d users and %d dreams...", opts.NumUsers, opts.NumDreams)

	users, err := s.SeedDreamers(ctx, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	dreams, err := s.SeedJournals(ctx, users, opts.NumDreams)
	if err != nil {
		return fmt.Errorf("failed to create dreams: %w", err)
	}
	log.Printf("✓ %d dreams created", len(dreams))

	shared, err := s.SeedCommunity(ctx, users, dreams, opts.ShareRatio)
	if err != nil {
		return fmt.Errorf("failed to seed community: %w", err)
	}
	log.Printf("✓ %d dreams shared to the community", shared)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// ClearAll removes all seeded data. Deletion order follows the foreign
// key graph.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []string{"reactions", "comments", "analyses", "dreams", "posts", "users"}
	for _, table := range tables {
		if _, err := s.db.Execute(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedDreamers creates count users. The first few are fixed accounts so
// a developer always has known credentials to log in with.
func (s *Seeder) SeedDreamers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)

	if count >= 2 {
		for _, name := range []string{"luna", "test"} {
			user, err := s.factory.BuildUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.Nickname = ""
			})
			if err != nil {
				return nil, err
			}
			if err := s.users.Create(ctx, user); err == nil {
				users = append(users, *user)
			}
		}
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.BuildUser(func(u *models.User) {
			// Ensure uniqueness roughly
			u.Username = fmt.Sprintf("%s%d", u.Username, i)
			u.Email = fmt.Sprintf("%s@example.com", u.Username)
		})
		if err != nil {
			return nil, err
		}
		if err := s.users.Create(ctx, user); err != nil {
			log.Printf("Failed to create user %s: %v", user.Username, err)
			continue
		}
		users = append(users, *user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

// SeedJournals creates count dreams spread across the given users.
// Roughly a third of the dreams get an analysis attached.
func (s *Seeder) SeedJournals(ctx context.Context, users []models.User, count int) ([]models.Dream, error) {
	if len(users) == 0 {
		return nil, nil
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	dreams := make([]models.Dream, 0, count)

	for i := 0; i < count; i++ {
		user := users[r.Intn(len(users))]
		dream := s.factory.BuildDream(user.ID)
		if err := s.dreams.Create(ctx, dream); err != nil {
			return nil, err
		}
		dreams = append(dreams, *dream)

		if r.Float64() < 0.35 {
			if err := s.analyses.Create(ctx, s.factory.BuildAnalysis(dream.ID)); err != nil {
				return nil, err
			}
		}

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d dreams...", i)
		}
	}

	return dreams, nil
}

// SeedCommunity shares a fraction of the dreams publicly and layers
// comments, replies, reactions and board posts on top. Returns the
// number of dreams shared.
func (s *Seeder) SeedCommunity(ctx context.Context, users []models.User, dreams []models.Dream, shareRatio float64) (int, error) {
	if len(users) == 0 || len(dreams) == 0 {
		return 0, nil
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	shared := 0
	for _, dream := range dreams {
		if r.Float64() >= shareRatio {
			continue
		}
		if err := s.dreams.SetVisibility(ctx, dream.ID, dream.UserID, true); err != nil {
			return shared, err
		}
		shared++

		// A few comments per shared dream, occasionally threaded.
		var parentID *int64
		for j := 0; j < r.Intn(4); j++ {
			commenter := users[r.Intn(len(users))]
			comment := s.factory.BuildComment(dream.ID, commenter.ID, parentID)
			if err := s.comments.Create(ctx, comment); err != nil {
				return shared, err
			}
			if parentID == nil && r.Float64() < 0.5 {
				id := comment.ID
				parentID = &id
			}
		}

		for j := 0; j < r.Intn(6); j++ {
			reactor := users[r.Intn(len(users))]
			emoji := models.AllowedEmojis[r.Intn(len(models.AllowedEmojis))]
			if _, err := s.reactions.Toggle(ctx, models.TargetDream, dream.ID, reactor.ID, emoji); err != nil {
				return shared, err
			}
		}
	}

	// Bulletin board posts, about one per five users.
	for i := 0; i < len(users)/5+1; i++ {
		author := users[r.Intn(len(users))]
		if err := s.posts.Create(ctx, s.factory.BuildPost(author.ID)); err != nil {
			return shared, err
		}
	}

	return shared, nil
}
