// Package seed creates demo data through the repositories. Intended for
// development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
	"campusconnect/internal/service"
	"campusconnect/internal/store"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// Options controls seed volume.
type Options struct {
	Users    int
	Posts    int
	Groups   int
	Events   int
	Comments int
	// Password used for every seeded account so demos can log in.
	Password string
}

// DefaultOptions is a small but lively campus.
func DefaultOptions() Options {
	return Options{
		Users:    12,
		Posts:    30,
		Groups:   6,
		Events:   8,
		Comments: 40,
		Password: "Seed!Passw0rd42",
	}
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	groups repository.GroupRepository
	events repository.EventRepository
	cmts   repository.CommentRepository
	ledger *service.LedgerService
	rand   *rand.Rand
}

// NewFactory creates a Factory over the given entity store.
func NewFactory(s store.EntityStore) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	posts := repository.NewPostRepository(s)
	groups := repository.NewGroupRepository(s)
	events := repository.NewEventRepository(s)
	return &Factory{
		users:  repository.NewUserRepository(s),
		posts:  posts,
		groups: groups,
		events: events,
		cmts:   repository.NewCommentRepository(s, posts),
		ledger: service.NewLedgerService(groups, events, posts),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser persists a fake user. The password is bcrypt-hashed.
func (f *Factory) CreateUser(ctx context.Context, password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     gofakeit.Name(),
		Email:    fmt.Sprintf("%s.%s@campus.edu", gofakeit.Username(), gofakeit.LetterN(6)),
		Course:   gofakeit.RandomString([]string{"Computer Science", "Mathematics", "Biology", "History", "Design"}),
		Password: string(hashed),
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a fake post authored by the given user.
func (f *Factory) CreatePost(ctx context.Context, author *models.User) (*models.Post, error) {
	post := &models.Post{
		Title:    gofakeit.Sentence(5),
		Content:  gofakeit.Paragraph(1, 3, 5, "\n"),
		Category: gofakeit.RandomString(models.PostCategories),
		AuthorID: author.ID,
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateGroup persists a fake group administered by the given user.
func (f *Factory) CreateGroup(ctx context.Context, admin *models.User) (*models.Group, error) {
	group := &models.Group{
		Name:        gofakeit.NounCollectiveThing() + " " + gofakeit.RandomString([]string{"Club", "Society", "Circle"}),
		Description: gofakeit.Sentence(10),
		Category:    gofakeit.RandomString(models.GroupCategories),
		AdminID:     admin.ID,
	}
	if err := f.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// CreateEvent persists a fake upcoming event organized by the given user.
func (f *Factory) CreateEvent(ctx context.Context, organizer *models.User) (*models.Event, error) {
	event := &models.Event{
		Title:       gofakeit.Sentence(4),
		Description: gofakeit.Sentence(12),
		Location:    gofakeit.Street(),
		Date:        time.Now().Add(time.Duration(1+f.rand.Intn(30*24)) * time.Hour),
		OrganizerID: organizer.ID,
	}
	if err := f.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// CreateComment persists a fake comment on the given post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		Content:  gofakeit.Sentence(8),
		AuthorID: author.ID,
	}
	if err := f.cmts.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Run seeds a full demo campus: users, their posts, groups, events,
// comments, and a spread of likes, joins, and attendances through the
// ledger so counters and sets stay consistent.
func (f *Factory) Run(ctx context.Context, opts Options) error {
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx, opts.Password)
		if err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		post, err := f.CreatePost(ctx, f.pickUser(users))
		if err != nil {
			return fmt.Errorf("seed post: %w", err)
		}
		posts = append(posts, post)
	}

	for i := 0; i < opts.Groups; i++ {
		group, err := f.CreateGroup(ctx, f.pickUser(users))
		if err != nil {
			return fmt.Errorf("seed group: %w", err)
		}
		for _, user := range users {
			if user.ID == group.AdminID || f.rand.Intn(3) != 0 {
				continue
			}
			if err := f.ledger.JoinGroup(ctx, user.ID, group.ID); err != nil {
				return fmt.Errorf("seed join: %w", err)
			}
		}
	}

	for i := 0; i < opts.Events; i++ {
		event, err := f.CreateEvent(ctx, f.pickUser(users))
		if err != nil {
			return fmt.Errorf("seed event: %w", err)
		}
		for _, user := range users {
			if user.ID == event.OrganizerID || f.rand.Intn(4) != 0 {
				continue
			}
			if err := f.ledger.AttendEvent(ctx, user.ID, event.ID); err != nil {
				return fmt.Errorf("seed attend: %w", err)
			}
		}
	}

	for _, post := range posts {
		for _, user := range users {
			if f.rand.Intn(4) != 0 {
				continue
			}
			if err := f.ledger.LikePost(ctx, user.ID, post.ID); err != nil {
				return fmt.Errorf("seed like: %w", err)
			}
		}
	}

	for i := 0; i < opts.Comments; i++ {
		post := posts[f.rand.Intn(len(posts))]
		if _, err := f.CreateComment(ctx, f.pickUser(users), post); err != nil {
			return fmt.Errorf("seed comment: %w", err)
		}
	}

	log.Printf("seeded %d users, %d posts, %d groups, %d events, %d comments",
		opts.Users, opts.Posts, opts.Groups, opts.Events, opts.Comments)
	return nil
}

func (f *Factory) pickUser(users []*models.User) *models.User {
	return users[f.rand.Intn(len(users))]
}
