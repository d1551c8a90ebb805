package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nightreel/cineclub-api/internal/metadata"
	"github.com/nightreel/cineclub-api/internal/models"
	"github.com/nightreel/cineclub-api/internal/repository"
	appErrors "github.com/nightreel/cineclub-api/pkg/errors"
	"github.com/nightreel/cineclub-api/pkg/export"
	"github.com/nightreel/cineclub-api/pkg/storage"
)

type filmRepository interface {
	List(ctx context.Context, filter models.FilmFilter) ([]models.Film, int, error)
	FindByID(ctx context.Context, id string) (*models.Film, error)
	FindCurrent(ctx context.Context) (*models.Film, error)
	Create(ctx context.Context, film *models.Film) error
}

type metadataLookup interface {
	Lookup(ctx context.Context, ref string) (*metadata.Info, error)
}

type recapRatings interface {
	ListRatings(ctx context.Context, filmID string) ([]models.Rating, error)
}

type recapHighlights interface {
	ListHighlighted(ctx context.Context, filmID string) ([]models.DiscussionItem, error)
}

// ScheduleFilmRequest creates an UPCOMING film for a free week.
type ScheduleFilmRequest struct {
	ExternalRef string    `json:"external_ref" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	WeekStart   time.Time `json:"week_start" validate:"required"`
}

// Recap bundles an archived film's ratings and highlighted comments.
type Recap struct {
	Film       models.Film             `json:"film"`
	Ratings    models.FilmRatings      `json:"ratings"`
	Highlights []models.DiscussionItem `json:"highlights"`
}

// RecapLink is a time-limited download token for a stored recap file.
type RecapLink struct {
	Token     string    `json:"token"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FilmService orchestrates the weekly schedule: scheduling upcoming
// films, the read views, and the recap export for archived weeks.
type FilmService struct {
	repo       filmRepository
	ratings    recapRatings
	highlights recapHighlights
	meta       metadataLookup
	cache      *CacheService
	archive    *storage.LocalStore
	signer     *storage.SignedURLSigner
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFilmService creates a film service. archive and signer are optional;
// without them recap sharing reports UNAVAILABLE while inline export
// keeps working.
func NewFilmService(repo filmRepository, ratings recapRatings, highlights recapHighlights, meta metadataLookup, cache *CacheService, archive *storage.LocalStore, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *FilmService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilmService{repo: repo, ratings: ratings, highlights: highlights, meta: meta, cache: cache, archive: archive, signer: signer, validator: validate, logger: logger}
}

// Schedule creates an UPCOMING film for the requested week. The title
// and year are snapshotted from the metadata collaborator when it
// answers in time; the admin-supplied title is the fallback, never a
// blocked write.
func (s *FilmService) Schedule(ctx context.Context, req ScheduleFilmRequest) (*models.Film, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid film payload")
	}
	if !IsWeekKey(req.WeekStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_start must be a Monday-aligned UTC date")
	}

	film := &models.Film{
		Title:       req.Title,
		ExternalRef: req.ExternalRef,
		WeekStart:   req.WeekStart,
		Status:      models.FilmUpcoming,
	}

	if s.meta != nil {
		if info, err := s.meta.Lookup(ctx, req.ExternalRef); err != nil {
			s.logger.Warn("metadata lookup failed, keeping submitted title",
				zap.String("external_ref", req.ExternalRef), zap.Error(err))
		} else {
			if info.Title != "" {
				film.Title = info.Title
			}
			if info.Year > 0 {
				year := info.Year
				film.Year = &year
			}
			if info.PosterURL != "" {
				poster := info.PosterURL
				film.PosterURL = &poster
			}
		}
	}

	if err := s.repo.Create(ctx, film); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a film is already scheduled for that week")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule film")
	}

	s.invalidateListings(ctx)
	return film, nil
}

// List returns paginated films, read-through cached because the archive
// listing is the club's hottest page and changes only on scheduling and
// rotation.
func (s *FilmService) List(ctx context.Context, filter models.FilmFilter) ([]models.Film, *models.Pagination, error) {
	type cached struct {
		Films      []models.Film      `json:"films"`
		Pagination *models.Pagination `json:"pagination"`
	}

	key := listCacheKey(filter)
	var hit cached
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return hit.Films, hit.Pagination, nil
	}

	films, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list films")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	_ = s.cache.Set(ctx, key, cached{Films: films, Pagination: pagination}, 0)
	return films, pagination, nil
}

// Get returns a film by ID.
func (s *FilmService) Get(ctx context.Context, id string) (*models.Film, error) {
	film, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "film not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load film")
	}
	return film, nil
}

// Current returns the week's CURRENT film.
func (s *FilmService) Current(ctx context.Context) (*models.Film, error) {
	film, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current film")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current film")
	}
	return film, nil
}

// BuildRecap assembles an archived film's recap data.
func (s *FilmService) BuildRecap(ctx context.Context, id string) (*Recap, error) {
	film, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if film.Status != models.FilmArchived {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recap is only available for archived films")
	}

	ratings, err := s.ratings.ListRatings(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}
	highlights, err := s.highlights.ListHighlighted(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load highlights")
	}

	recap := &Recap{Film: *film, Highlights: highlights}
	recap.Ratings = aggregateRatings(id, ratings)
	return recap, nil
}

// ExportRecap renders the recap as CSV or PDF bytes.
func (s *FilmService) ExportRecap(ctx context.Context, id, format string) ([]byte, string, error) {
	recap, err := s.BuildRecap(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"member", "score", "review"},
	}
	for _, rating := range recap.Ratings.Ratings {
		review := ""
		if rating.Review != nil {
			review = *rating.Review
		}
		data.Rows = append(data.Rows, map[string]string{
			"member": rating.UserID,
			"score":  strconv.Itoa(rating.Score),
			"review": review,
		})
	}
	for _, item := range recap.Highlights {
		data.Rows = append(data.Rows, map[string]string{
			"member": item.AuthorID,
			"score":  "",
			"review": "[highlight] " + item.Body,
		})
	}

	switch format {
	case "pdf":
		title := fmt.Sprintf("%s - week of %s (avg %.1f)", recap.Film.Title, recap.Film.WeekStart.Format("2006-01-02"), recap.Ratings.Average)
		payload, err := export.NewPDFExporter().Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render recap pdf")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render recap csv")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ShareRecap renders the recap, stores the file, and mints a signed
// download token so the link can be passed around without club
// credentials.
func (s *FilmService) ShareRecap(ctx context.Context, id, format string) (*RecapLink, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "recap sharing is not configured")
	}

	payload, contentType, err := s.ExportRecap(ctx, id, format)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s/recap.%s", id, extensionFor(contentType))
	if err := s.archive.Save(name, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store recap")
	}

	token, expiresAt, err := s.signer.Generate(id, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign recap link")
	}
	return &RecapLink{Token: token, Format: extensionFor(contentType), ExpiresAt: expiresAt}, nil
}

// OpenSharedRecap resolves a download token into the stored file.
func (s *FilmService) OpenSharedRecap(token string) ([]byte, string, error) {
	if s.archive == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnavailable, "recap sharing is not configured")
	}

	_, name, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "download link is invalid or expired")
	}

	payload, err := s.archive.Read(name)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "recap file is no longer available")
	}

	contentType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}
	return payload, contentType, nil
}

func extensionFor(contentType string) string {
	if contentType == "application/pdf" {
		return "pdf"
	}
	return "csv"
}

func (s *FilmService) invalidateListings(ctx context.Context) {
	if err := s.cache.InvalidatePattern(ctx, "films:*"); err != nil {
		s.logger.Warn("failed to invalidate film cache", zap.Error(err))
	}
}

func aggregateRatings(filmID string, ratings []models.Rating) models.FilmRatings {
	agg := models.FilmRatings{FilmID: filmID, Ratings: ratings, Count: len(ratings)}
	if len(ratings) == 0 {
		return agg
	}
	sum := 0
	for _, rating := range ratings {
		sum += rating.Score
	}
	agg.Average = float64(sum) / float64(len(ratings))
	return agg
}

func listCacheKey(filter models.FilmFilter) string {
	return fmt.Sprintf("films:list:%s:%d:%d:%s", filter.Status, filter.Page, filter.PageSize, filter.SortOrder)
}
