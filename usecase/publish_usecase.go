package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

// tokenRefreshMargin is how close to expiry an access token may be before a
// publish forces an on-demand refresh.
const tokenRefreshMargin = 5 * time.Minute

// PublishConfig holds the orchestration knobs, sourced from configuration.
type PublishConfig struct {
	PollInitialInterval time.Duration
	PollMaxInterval     time.Duration
	PollTimeout         time.Duration
	MaxInFlight         int64
	SignedURLTTL        time.Duration
}

// PublishSummary counts the outcomes of one publish sweep.
type PublishSummary struct {
	Due       int `json:"due"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type IPublishUsecase interface {
	// PublishDue claims and publishes every post whose schedule time has
	// arrived, at most MaxInFlight at a time. One post's failure never stops
	// its siblings.
	PublishDue(ctx context.Context) (*PublishSummary, error)
}

type publishUsecase struct {
	postStore    repository.IPostStore
	accountStore repository.IAccountStore
	videoStore   repository.IVideoStore
	storage      repository.IBlobStorage
	clients      repository.ClientRegistry
	events       repository.IPostEvents
	tokens       ITokenRefreshUsecase
	cfg          PublishConfig
}

func NewPublishUsecase(
	postStore repository.IPostStore,
	accountStore repository.IAccountStore,
	videoStore repository.IVideoStore,
	storage repository.IBlobStorage,
	clients repository.ClientRegistry,
	events repository.IPostEvents,
	tokens ITokenRefreshUsecase,
	cfg PublishConfig,
) IPublishUsecase {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	return &publishUsecase{
		postStore:    postStore,
		accountStore: accountStore,
		videoStore:   videoStore,
		storage:      storage,
		clients:      clients,
		events:       events,
		tokens:       tokens,
		cfg:          cfg,
	}
}

func (u *publishUsecase) PublishDue(ctx context.Context) (*PublishSummary, error) {
	due, err := u.postStore.FindDue(ctx, time.Now().UTC())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while querying due posts.")
		return nil, err
	}

	var published, failed, skipped atomic.Int64
	sem := semaphore.NewWeighted(u.cfg.MaxInFlight)
	var wg sync.WaitGroup
	for i, post := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled mid-sweep; everything not yet launched stays SCHEDULED.
			skipped.Add(int64(len(due) - i))
			break
		}
		wg.Add(1)
		go func(post *model.Post) {
			defer wg.Done()
			defer sem.Release(1)
			switch u.publishOne(ctx, post) {
			case publishOutcomePublished:
				published.Add(1)
			case publishOutcomeFailed:
				failed.Add(1)
			default:
				skipped.Add(1)
			}
		}(post)
	}
	wg.Wait()

	summary := &PublishSummary{
		Due:       len(due),
		Published: int(published.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}
	if summary.Due > 0 {
		logger.GetLogger().
			WithField("due", summary.Due).
			WithField("published", summary.Published).
			WithField("failed", summary.Failed).
			WithField("skipped", summary.Skipped).
			Info("Publish sweep completed")
	}
	return summary, nil
}

type publishOutcome int

const (
	publishOutcomeSkipped publishOutcome = iota
	publishOutcomePublished
	publishOutcomeFailed
)

func (u *publishUsecase) publishOne(ctx context.Context, post *model.Post) publishOutcome {
	log := logger.GetLogger().
		WithField("post_id", post.ID).
		WithField("platform", post.Platform).
		WithField("video_id", post.VideoID)

	// Claim the post before any network call. Losing this race means another
	// worker owns the post; that is a normal outcome, not an error.
	claimed, err := u.postStore.CompareAndSetStatus(ctx, post.ID, model.PostStatusScheduled, model.PostStatusPublishing, nil)
	if err != nil {
		log.WithField("error", err).Error("Error while claiming post.")
		return publishOutcomeSkipped
	}
	if !claimed {
		log.Info("Post already claimed elsewhere - skipping")
		return publishOutcomeSkipped
	}

	client, ok := u.clients.Resolve(post.Platform)
	if !ok {
		return u.markFailed(ctx, post, "platform_not_supported")
	}

	account, err := u.accountStore.GetByID(ctx, post.AccountID)
	if err != nil {
		log.WithField("error", err).Error("Error while loading social account.")
		return u.markFailed(ctx, post, "account_not_found")
	}

	accessToken := account.AccessToken
	if account.TokenExpiresWithin(tokenRefreshMargin) {
		accessToken, err = u.tokens.RefreshAccount(ctx, account)
		if err != nil {
			return u.markFailed(ctx, post, "token_refresh_failed")
		}
	}

	video, err := u.videoStore.GetByID(ctx, post.VideoID)
	if err != nil {
		log.WithField("error", err).Error("Error while loading video metadata.")
		return u.markFailed(ctx, post, "video_not_found")
	}

	sourceURL, err := u.storage.GetSignedDownloadURL(ctx, video.StorageKey, u.cfg.SignedURLTTL)
	if err != nil {
		log.WithField("error", err).Error("Error while presigning video URL.")
		return u.markFailed(ctx, post, "storage_error")
	}

	publishID, err := client.InitiateUpload(ctx, accessToken, sourceURL)
	if err != nil {
		log.WithField("error", err).Error("Error while initiating upload.")
		return u.markFailed(ctx, post, err.Error())
	}
	post.PublishID = &publishID
	if _, err := u.postStore.CompareAndSetStatus(ctx, post.ID, model.PostStatusPublishing, model.PostStatusPublishing,
		&model.PostStateFields{PublishID: &publishID}); err != nil {
		log.WithField("error", err).Warn("Failed to persist publish id")
	}
	log.WithField("publish_id", publishID).Info("Upload initiated")

	status, err := u.pollUntilTerminal(ctx, client, accessToken, publishID)
	if err != nil {
		if model.IsAuthError(err) {
			return u.markFailed(ctx, post, "auth_error")
		}
		return u.markFailed(ctx, post, err.Error())
	}
	if status.State == dto.PublishStateFailed {
		reason := status.FailReason
		if reason == "" {
			reason = "publish_failed"
		}
		return u.markFailed(ctx, post, reason)
	}
	return u.markPublished(ctx, post, status.PlatformPostID)
}

// pollUntilTerminal polls the publish status with exponential backoff until a
// terminal state, the timeout, or cancellation. A nil error guarantees a
// terminal status.
func (u *publishUsecase) pollUntilTerminal(ctx context.Context, client repository.IPlatformClient, accessToken, publishID string) (*dto.PublishStatus, error) {
	pollCtx, cancel := context.WithTimeoutCause(ctx, u.cfg.PollTimeout, errPollTimeout)
	defer cancel()

	interval := u.cfg.PollInitialInterval
	for {
		status, err := client.GetPublishStatus(pollCtx, accessToken, publishID)
		if err != nil {
			if model.IsAuthError(err) {
				return nil, err
			}
			logger.GetLogger().
				WithField("publish_id", publishID).
				WithField("error", err).
				Warn("Status poll failed - retrying")
		} else if status.State.Terminal() {
			return status, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			if context.Cause(pollCtx) == errPollTimeout {
				return nil, errPollTimeout
			}
			return nil, pollCtx.Err()
		case <-timer.C:
		}
		interval *= 2
		if interval > u.cfg.PollMaxInterval {
			interval = u.cfg.PollMaxInterval
		}
	}
}

type pollTimeoutError struct{}

func (pollTimeoutError) Error() string { return "timeout" }

var errPollTimeout = pollTimeoutError{}

func (u *publishUsecase) markPublished(ctx context.Context, post *model.Post, platformPostID string) publishOutcome {
	now := time.Now().UTC()
	fields := &model.PostStateFields{PostedAt: &now}
	if platformPostID != "" {
		fields.PlatformPostID = &platformPostID
	}
	ok, err := u.postStore.CompareAndSetStatus(ctx, post.ID, model.PostStatusPublishing, model.PostStatusPublished, fields)
	if err != nil || !ok {
		logger.GetLogger().
			WithField("post_id", post.ID).
			WithField("error", err).
			Error("Error while marking post published.")
		return publishOutcomeSkipped
	}
	post.Status = model.PostStatusPublished
	post.PlatformPostID = fields.PlatformPostID
	post.PostedAt = &now
	logger.GetLogger().
		WithField("post_id", post.ID).
		WithField("platform", post.Platform).
		WithField("platform_post_id", platformPostID).
		Info("Post published")
	u.emit(ctx, post)
	return publishOutcomePublished
}

func (u *publishUsecase) markFailed(ctx context.Context, post *model.Post, reason string) publishOutcome {
	fields := &model.PostStateFields{FailReason: &reason}
	ok, err := u.postStore.CompareAndSetStatus(ctx, post.ID, model.PostStatusPublishing, model.PostStatusFailed, fields)
	if err != nil || !ok {
		logger.GetLogger().
			WithField("post_id", post.ID).
			WithField("error", err).
			Error("Error while marking post failed.")
		return publishOutcomeSkipped
	}
	post.Status = model.PostStatusFailed
	post.FailReason = &reason
	logger.GetLogger().
		WithField("post_id", post.ID).
		WithField("platform", post.Platform).
		WithField("fail_reason", reason).
		Warn("Post failed")
	u.emit(ctx, post)
	return publishOutcomeFailed
}

// emit publishes the terminal event best-effort; the post row is already the
// source of truth.
func (u *publishUsecase) emit(ctx context.Context, post *model.Post) {
	if u.events == nil {
		return
	}
	evt := &model.PostEvent{
		PostID:         post.ID,
		VideoID:        post.VideoID,
		Platform:       post.Platform,
		Status:         post.Status,
		PlatformPostID: post.PlatformPostID,
		FailReason:     post.FailReason,
		OccurredAt:     time.Now().UTC(),
	}
	if err := u.events.PublishPostEvent(ctx, evt); err != nil {
		logger.GetLogger().
			WithField("post_id", post.ID).
			WithField("error", err).
			Warn("Failed to publish post event")
	}
}
