package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

func setSkills(t *testing.T, db *mongo.Database, userID utils.SixID, wanted, offered []utils.SixID) {
	t.Helper()
	_, err := db.Collection("users").UpdateOne(context.Background(),
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"skills_wanted": wanted, "skills_offered": offered}},
	)
	require.NoError(t, err)
}

func TestMatchService_Compatibility(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_match_compat", "users", "skills")
	svc := NewMatchService(NewUserService(db), NewSkillService(db), nil, nil, time.Minute)
	ctx := context.Background()

	guitar := seedSkill(t, db, "Guitar")
	spanish := seedSkill(t, db, "Spanish")
	chess := seedSkill(t, db, "Chess")

	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	setSkills(t, db, alice, []utils.SixID{guitar, spanish}, nil)
	setSkills(t, db, bob, nil, []utils.SixID{guitar, chess})

	result, err := svc.Compatibility(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, 0.5, result.Score)
	assert.Equal(t, []string{"Guitar"}, result.SharedSkills)

	// No wanted skills scores zero
	result, err = svc.Compatibility(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.Empty(t, result.SharedSkills)

	_, err = svc.Compatibility(ctx, alice, utils.NewSixID())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestMatchService_CustomScorer(t *testing.T) {
	db := utils.SetupTestDB(t, "testdb_match_scorer", "users", "skills")

	var sawWants, sawOffers int
	scorer := ScorerFunc(func(wants, offers []models.Skill) MatchResult {
		sawWants, sawOffers = len(wants), len(offers)
		return MatchResult{Score: 0.42}
	})
	svc := NewMatchService(NewUserService(db), NewSkillService(db), scorer, nil, time.Minute)

	piano := seedSkill(t, db, "Piano")
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	setSkills(t, db, alice, []utils.SixID{piano}, nil)
	setSkills(t, db, bob, nil, []utils.SixID{piano})

	result, err := svc.Compatibility(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, 0.42, result.Score)
	assert.Equal(t, 1, sawWants)
	assert.Equal(t, 1, sawOffers)
}
