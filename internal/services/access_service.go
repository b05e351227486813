package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/courseguardian/backend/internal/metrics"
	"github.com/courseguardian/backend/internal/models"
	"github.com/courseguardian/backend/internal/repositories"
	"github.com/courseguardian/backend/internal/storage"
	"go.uber.org/zap"
)

// Signer defines the signature engine used for local media URLs
type Signer interface {
	// Sign computes the signature binding path, subject and expiry
	//
	// "path" is the media path relative to the media root.
	// "subjectID" is the ID of the user the URL is issued to.
	// "expiresAt" is the expiry time of the URL.
	//
	// Returns the signature, or an empty string if the signer has no secret.
	Sign(path string, subjectID int, expiresAt time.Time) string
	// Verify recomputes the signature and compares it with the supplied one
	//
	// "path" is the media path relative to the media root.
	// "subjectID" is the ID of the user the URL was issued to.
	// "expiresAt" is the expiry time carried by the URL.
	// "signature" is the signature carried by the URL.
	//
	// Returns true if the signature matches.
	Verify(path string, subjectID int, expiresAt time.Time, signature string) bool
	// Configured reports whether the signer has a secret
	Configured() bool
}

// SubjectRepository defines methods for user data access
type SubjectRepository interface {
	// GetByID retrieves a user by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the user.
	//
	// Returns the user, or repositories.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int) (*models.Subject, error)
}

// EnrollmentRepository defines methods for enrollment data access
type EnrollmentRepository interface {
	// Exists checks if the user is enrolled in the course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns a boolean and an error if any.
	Exists(ctx context.Context, userID, courseID int) (bool, error)
}

// ContentItemRepository defines methods for content item data access
type ContentItemRepository interface {
	// GetByID retrieves a content item by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the content item.
	//
	// Returns the content item, or repositories.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int) (*models.ContentItem, error)
	// GetByStoragePath retrieves the content item stored at the given local path
	//
	// "ctx" is the context for the request.
	// "storagePath" is the path relative to the media root.
	//
	// Returns the content item, or repositories.ErrNotFound if it does not exist.
	GetByStoragePath(ctx context.Context, storagePath string) (*models.ContentItem, error)
	// SetFile attaches a stored file to a content item that has none yet
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the content item.
	// "storagePath" is the local path of the file.
	// "remotePath" is the remote object path, empty if there is no remote copy.
	// "sizeBytes" is the size of the file.
	//
	// Returns repositories.ErrNotUpdated if the item is missing or already has a file.
	SetFile(ctx context.Context, id int, storagePath, remotePath string, sizeBytes int64) error
}

// AccessConfig holds the URL issuing policy
type AccessConfig struct {
	// PublicBaseURL is prepended to local URLs, without trailing slash
	PublicBaseURL string
	PDFTTL        time.Duration
	VideoTTL      time.Duration
}

type accessService struct {
	signer      Signer
	subjects    SubjectRepository
	enrollments EnrollmentRepository
	items       ContentItemRepository
	remote      storage.RemoteStore
	cfg         AccessConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewAccessService creates a new access service. remote may be nil when no remote store is configured.
func NewAccessService(
	signer Signer,
	subjects SubjectRepository,
	enrollments EnrollmentRepository,
	items ContentItemRepository,
	remote storage.RemoteStore,
	cfg AccessConfig,
	logger *zap.Logger,
) *accessService {
	if cfg.PDFTTL <= 0 {
		cfg.PDFTTL = 5 * time.Minute
	}
	if cfg.VideoTTL <= 0 {
		cfg.VideoTTL = time.Hour
	}
	return &accessService{
		signer:      signer,
		subjects:    subjects,
		enrollments: enrollments,
		items:       items,
		remote:      remote,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// TTLFor returns the URL lifetime policy for a media kind
func (s *accessService) TTLFor(kind models.MediaKind) time.Duration {
	if kind == models.MediaKindPDF {
		return s.cfg.PDFTTL
	}
	return s.cfg.VideoTTL
}

// IssueAccessURL issues a URL for path, trying the remote store first and falling back to a locally signed URL
//
// "ctx" is the context for the request.
// "path" is the media path; it is used both as the remote object path and the local path.
// "subject" is the user the URL is issued to.
// "ttl" is the lifetime of the URL; zero or negative selects the policy of "kind".
// "kind" is the media kind.
//
// Returns the grant. Remote failures are logged and never returned.
func (s *accessService) IssueAccessURL(ctx context.Context, path string, subject *models.Subject, ttl time.Duration, kind models.MediaKind) (*models.AccessGrant, error) {
	return s.issue(ctx, path, path, subject, ttl, kind)
}

func (s *accessService) issue(ctx context.Context, localPath, remotePath string, subject *models.Subject, ttl time.Duration, kind models.MediaKind) (*models.AccessGrant, error) {
	if localPath == "" && remotePath == "" {
		return nil, fmt.Errorf("%w: empty media path", ErrInvalidArgument)
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: nil subject", ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = s.TTLFor(kind)
	}

	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	grant := &models.AccessGrant{
		ExpiresAt: expiresAt,
		Watermark: Watermark(subject, now),
	}

	if s.remote != nil && remotePath != "" {
		signedURL, err := s.remote.SignedURL(ctx, remotePath, ttl)
		switch {
		case err != nil:
			metrics.RemoteFallbacks.WithLabelValues("sign").Inc()
			s.logger.Warn("remote signing failed, falling back to local url",
				zap.String("path", remotePath),
				zap.Int("subject_id", subject.ID),
				zap.Error(err),
			)
		case signedURL == "":
			metrics.RemoteFallbacks.WithLabelValues("sign").Inc()
			s.logger.Warn("remote signing returned empty url, falling back to local url",
				zap.String("path", remotePath),
				zap.Int("subject_id", subject.ID),
			)
		default:
			grant.URL = signedURL
			grant.Source = models.URLSourceRemote
			metrics.GrantsIssued.WithLabelValues(string(kind), string(grant.Source)).Inc()
			return grant, nil
		}
	}

	if localPath == "" {
		return nil, fmt.Errorf("%w: no local copy to sign", ErrMediaNotFound)
	}

	localURL, err := s.LocalURL(localPath, subject.ID, expiresAt)
	if err != nil {
		return nil, err
	}
	grant.URL = localURL
	grant.Source = models.URLSourceLocal
	metrics.GrantsIssued.WithLabelValues(string(kind), string(grant.Source)).Inc()

	return grant, nil
}

// LocalURL builds "{base}/secure-media/{escaped path}?subject_id=..&expires=..&signature=.."
func (s *accessService) LocalURL(path string, subjectID int, expiresAt time.Time) (string, error) {
	if !s.signer.Configured() {
		return "", ErrSigningUnavailable
	}

	query := url.Values{}
	query.Set("subject_id", strconv.Itoa(subjectID))
	query.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	query.Set("signature", s.signer.Sign(path, subjectID, expiresAt))

	return s.cfg.PublicBaseURL + "/secure-media/" + url.PathEscape(path) + "?" + query.Encode(), nil
}

// Watermark returns the overlay text "{display name} • {YYYY-MM-DD HH:MM}" in UTC
func Watermark(subject *models.Subject, at time.Time) string {
	return subject.DisplayName() + " • " + at.UTC().Format("2006-01-02 15:04")
}

// RequestAccess checks enrollment and issues a URL for a content item
//
// "ctx" is the context for the request.
// "contentID" is the ID of the content item.
// "subjectID" is the ID of the authenticated user.
//
// Returns the access response and an error if any.
func (s *accessService) RequestAccess(ctx context.Context, contentID, subjectID int) (*models.AccessResponse, error) {
	subject, item, err := s.AuthorizeContent(ctx, contentID, subjectID)
	if err != nil {
		return nil, err
	}

	grant, err := s.issue(ctx, item.StoragePath, item.RemotePath, subject, 0, item.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access url: %w", err)
	}

	return &models.AccessResponse{
		SignedURL: grant.URL,
		Watermark: grant.Watermark,
		ExpiresAt: grant.ExpiresAt,
		Source:    grant.Source,
		Kind:      item.Kind,
		UserID:    subject.ID,
		ContentID: item.ID,
		CourseID:  item.CourseID,
		LessonID:  item.LessonID,
	}, nil
}

// AuthorizeContent resolves the user and content item and checks the user may open it
//
// "ctx" is the context for the request.
// "contentID" is the ID of the content item.
// "subjectID" is the ID of the authenticated user.
//
// Returns the user and the content item, or ErrUnknownSubject, ErrContentNotFound,
// ErrMediaNotFound or ErrNotEnrolled.
func (s *accessService) AuthorizeContent(ctx context.Context, contentID, subjectID int) (*models.Subject, *models.ContentItem, error) {
	subject, err := s.lookupSubject(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}

	item, err := s.items.GetByID(ctx, contentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrContentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get content item: %w", err)
	}
	if !item.HasFile() && item.RemotePath == "" {
		return nil, nil, ErrMediaNotFound
	}

	if err := s.checkEnrollment(ctx, subject, item); err != nil {
		return nil, nil, err
	}

	return subject, item, nil
}

// VerifyAccess is the gate in front of locally signed URLs
//
// "ctx" is the context for the request.
// "path" is the decoded media path of the URL.
// "subjectID", "expiresEpoch" and "signature" are the query parameters of the URL.
// "now" is the verification time.
//
// Returns the resolved user, or ErrAccessExpired, ErrInvalidSignature or ErrUnknownSubject.
func (s *accessService) VerifyAccess(ctx context.Context, path string, subjectID int, expiresEpoch int64, signature string, now time.Time) (*models.Subject, error) {
	expiresAt := time.Unix(expiresEpoch, 0)
	if now.After(expiresAt) {
		metrics.AccessVerifications.WithLabelValues("expired").Inc()
		return nil, ErrAccessExpired
	}

	if !s.signer.Verify(path, subjectID, expiresAt, signature) {
		metrics.AccessVerifications.WithLabelValues("invalid_signature").Inc()
		return nil, ErrInvalidSignature
	}

	subject, err := s.lookupSubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrUnknownSubject) {
			metrics.AccessVerifications.WithLabelValues("unknown_subject").Inc()
		}
		return nil, err
	}

	metrics.AccessVerifications.WithLabelValues("granted").Inc()
	return subject, nil
}

// AuthorizeSignedURL verifies a signed local URL and resolves the content item behind it.
// Enrollment is checked again so revoked enrollments lose access before the URL expires.
//
// "ctx" is the context for the request.
// "path" is the decoded media path of the URL.
// "query" holds the subject_id, expires and signature parameters.
//
// Returns the user and the content item, or one of the verification errors.
func (s *accessService) AuthorizeSignedURL(ctx context.Context, path string, query url.Values) (*models.Subject, *models.ContentItem, error) {
	subjectID, expires, signature, err := ParseAccessQuery(query)
	if err != nil {
		metrics.AccessVerifications.WithLabelValues("malformed").Inc()
		return nil, nil, err
	}

	subject, err := s.VerifyAccess(ctx, path, subjectID, expires, signature, s.now())
	if err != nil {
		return nil, nil, err
	}

	item, err := s.items.GetByStoragePath(ctx, path)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get content item: %w", err)
	}

	if err := s.checkEnrollment(ctx, subject, item); err != nil {
		return nil, nil, err
	}

	return subject, item, nil
}

// ParseAccessQuery extracts subject_id, expires and signature, returning ErrMalformedToken
// when any of them is missing or not a number
func ParseAccessQuery(query url.Values) (subjectID int, expires int64, signature string, err error) {
	rawSubject, rawExpires := query.Get("subject_id"), query.Get("expires")
	signature = query.Get("signature")
	if rawSubject == "" || rawExpires == "" || signature == "" {
		return 0, 0, "", ErrMalformedToken
	}

	subjectID, err = strconv.Atoi(rawSubject)
	if err != nil || subjectID <= 0 {
		return 0, 0, "", ErrMalformedToken
	}

	expires, err = strconv.ParseInt(rawExpires, 10, 64)
	if err != nil || expires <= 0 {
		return 0, 0, "", ErrMalformedToken
	}

	return subjectID, expires, signature, nil
}

func (s *accessService) lookupSubject(ctx context.Context, subjectID int) (*models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnknownSubject
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return subject, nil
}

// checkEnrollment lets admins through and requires enrollment for everyone else
func (s *accessService) checkEnrollment(ctx context.Context, subject *models.Subject, item *models.ContentItem) error {
	if subject.IsAdmin() {
		return nil
	}

	enrolled, err := s.enrollments.Exists(ctx, subject.ID, item.CourseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return ErrNotEnrolled
	}

	return nil
}
