package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ai-thumbnail-be/internal/dto"
	"ai-thumbnail-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IGenerationWorker interface {
	JobDispatcher
	// Consume starts pulling jobs off the queue. It returns once the subscription is live.
	Consume(ctx context.Context) error
	// Wait blocks until every started run has returned.
	Wait()
}

type generationWorker struct {
	pubSub   *gochannel.GoChannel
	topic    string
	pipeline IGenerationPipeline
	slots    chan struct{}
	wg       sync.WaitGroup
	logger   logger.ILogger
}

func NewGenerationWorker(pubSub *gochannel.GoChannel, topic string, pipeline IGenerationPipeline, concurrency int, log logger.ILogger) IGenerationWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &generationWorker{
		pubSub:   pubSub,
		topic:    topic,
		pipeline: pipeline,
		slots:    make(chan struct{}, concurrency),
		logger:   log,
	}
}

func (w *generationWorker) Dispatch(_ context.Context, generationId uuid.UUID) error {
	payload, err := json.Marshal(dto.GenerationJobMessage{GenerationId: generationId})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := w.pubSub.Publish(w.topic, msg); err != nil {
		return fmt.Errorf("publish generation job: %w", err)
	}
	return nil
}

func (w *generationWorker) Consume(ctx context.Context) error {
	messages, err := w.pubSub.Subscribe(ctx, w.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			w.handle(ctx, msg)
		}
	}()

	return nil
}

// handle acks as soon as a slot is taken so the next job can be delivered while this one runs.
func (w *generationWorker) handle(ctx context.Context, msg *message.Message) {
	var job dto.GenerationJobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		w.logger.Error("Worker", "Dropping malformed generation job", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		msg.Nack()
		return
	}
	msg.Ack()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.slots }()

		if err := w.pipeline.Run(ctx, job.GenerationId); err != nil {
			level := w.logger.Error
			if errors.Is(err, ErrAlreadyRunning) {
				level = w.logger.Info
			}
			level("Worker", "Generation run ended with error", map[string]interface{}{
				"generation_id": job.GenerationId,
				"error":         err.Error(),
			})
		}
	}()
}

func (w *generationWorker) Wait() {
	w.wg.Wait()
}
