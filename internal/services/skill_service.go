package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

// ISkillService resolves skill documents. Skill CRUD is external; only
// lookups are needed for notification payloads and match scoring.
type ISkillService interface {
	FindByID(ctx context.Context, skillID utils.SixID) (*models.Skill, error)
	FindByIDs(ctx context.Context, skillIDs []utils.SixID) ([]models.Skill, error)
}

const skillsCollection = "skills"

type skillService struct {
	db *mongo.Database
}

// NewSkillService creates a new SkillService.
func NewSkillService(db *mongo.Database) ISkillService {
	return &skillService{db: db}
}

func (s *skillService) FindByID(ctx context.Context, skillID utils.SixID) (*models.Skill, error) {
	var skill models.Skill
	err := s.db.Collection(skillsCollection).FindOne(ctx, bson.M{"_id": skillID}).Decode(&skill)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding skill %s: %w", skillID.String(), err)
	}
	return &skill, nil
}

func (s *skillService) FindByIDs(ctx context.Context, skillIDs []utils.SixID) ([]models.Skill, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.db.Collection(skillsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": skillIDs}})
	if err != nil {
		return nil, fmt.Errorf("error finding skills: %w", err)
	}
	defer cursor.Close(ctx)

	var skills []models.Skill
	if err := cursor.All(ctx, &skills); err != nil {
		return nil, fmt.Errorf("error decoding skills: %w", err)
	}
	return skills, nil
}
