package persistence

import (
	"context"

	"crosspost/domain/model"
	"crosspost/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// JobRunRepository keeps the append-only scheduler run history in Mongo.
// A nil client degrades to a no-op so the scheduler can run without Mongo.
type JobRunRepository struct {
	client   *mongo.Client
	database string
}

func NewJobRunRepository(client *mongo.Client, database string) *JobRunRepository {
	if database == "" {
		database = "crosspost"
	}
	return &JobRunRepository{client: client, database: database}
}

func (r *JobRunRepository) collection() *mongo.Collection {
	return r.client.Database(r.database).Collection("job_runs")
}

func (r *JobRunRepository) Append(ctx context.Context, run *model.JobRun) error {
	if r.client == nil {
		return nil
	}
	_, err := r.collection().InsertOne(ctx, run)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("job", run.Job).Error("Error while appending job run")
	}
	return err
}

func (r *JobRunRepository) ListRecent(ctx context.Context, job string, limit int) ([]*model.JobRun, error) {
	if r.client == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection().Find(ctx, bson.D{{Key: "job", Value: job}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}()
	var runs []*model.JobRun
	for cursor.Next(ctx) {
		var run model.JobRun
		if err := cursor.Decode(&run); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding job run")
			continue
		}
		runs = append(runs, &run)
	}
	return runs, cursor.Err()
}
