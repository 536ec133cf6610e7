package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"skillswap/server/internal/config"
	"skillswap/server/internal/services"
	"skillswap/server/internal/storage"
)

// Task type names. TypeAttachmentResize is shared with the chat service,
// which enqueues it when a message carries an attachment.
const (
	TypeRatingReconcile  = "rating:reconcile"
	TypeAttachmentResize = services.TypeAttachmentResize
)

// AttachmentResizePayload is the payload for attachment:resize tasks.
type AttachmentResizePayload struct {
	Key string `json:"key"`
}

// NewClient creates an asynq client on the same Redis the server uses.
func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// TaskProcessor handles background tasks.
type TaskProcessor struct {
	cfg           *config.Config
	reviewService services.IReviewService
	s3Storage     storage.IS3Storage
	taskClient    *asynq.Client
}

// NewTaskProcessor creates a TaskProcessor.
func NewTaskProcessor(cfg *config.Config, reviewService services.IReviewService, s3Storage storage.IS3Storage, taskClient *asynq.Client) *TaskProcessor {
	return &TaskProcessor{
		cfg:           cfg,
		reviewService: reviewService,
		s3Storage:     s3Storage,
		taskClient:    taskClient,
	}
}

// SetupServer creates the asynq server and registers the task handlers.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) *asynq.Server {
	opts := rdb.Options()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		},
		asynq.Config{
			Concurrency: 5,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task %s failed: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRatingReconcile, processor.HandleRatingReconcileTask)
	mux.HandleFunc(TypeAttachmentResize, processor.HandleAttachmentResizeTask)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("asynq server error: %v", err)
		}
	}()

	return srv
}

// EnqueueRatingReconcile schedules the first reconciliation run; the handler
// re-enqueues itself afterwards.
func (p *TaskProcessor) EnqueueRatingReconcile(delay time.Duration) error {
	task := asynq.NewTask(TypeRatingReconcile, nil)
	_, err := p.taskClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return fmt.Errorf("failed to enqueue rating reconciliation: %w", err)
	}
	return nil
}

// HandleRatingReconcileTask recomputes every user's stored review aggregate.
// The synchronous recomputation after a review submission is best effort, so
// a failed write there leaves a stale aggregate; this periodic pass heals it.
// The task re-enqueues itself with the configured interval.
func (p *TaskProcessor) HandleRatingReconcileTask(ctx context.Context, t *asynq.Task) error {
	if err := p.reviewService.RecomputeAllAggregates(ctx); err != nil {
		log.Printf("Rating reconciliation run failed: %v", err)
		// Fall through to re-enqueue; the next run retries everything anyway
	}

	if err := p.EnqueueRatingReconcile(p.cfg.RatingReconcileInterval); err != nil {
		return err
	}
	return nil
}

// HandleAttachmentResizeTask downloads a chat attachment and, when it
// exceeds the configured dimension, downscales it in place.
func (p *TaskProcessor) HandleAttachmentResizeTask(ctx context.Context, t *asynq.Task) error {
	var payload AttachmentResizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal attachment resize payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Key == "" {
		return fmt.Errorf("empty attachment key: %w", asynq.SkipRetry)
	}

	data, contentType, err := p.s3Storage.GetObject(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("failed to fetch attachment %s: %w", payload.Key, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Not an image (or corrupt); leave the object as uploaded
		log.Printf("Attachment %s is not a decodable image (%s): %v", payload.Key, contentType, err)
		return nil
	}

	maxDim := p.cfg.AttachmentMaxDim
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return nil
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, resized)
		contentType = "image/png"
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
		contentType = "image/jpeg"
	}
	if err != nil {
		return fmt.Errorf("failed to encode resized attachment %s: %w", payload.Key, err)
	}

	if err := p.s3Storage.PutObject(ctx, payload.Key, buf.Bytes(), contentType); err != nil {
		return fmt.Errorf("failed to store resized attachment %s: %w", payload.Key, err)
	}

	log.Printf("Attachment %s resized from %dx%d to fit %d", payload.Key, bounds.Dx(), bounds.Dy(), maxDim)
	return nil
}
