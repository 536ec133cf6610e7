package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"skillswap/server/internal/models"
	"skillswap/server/internal/utils"
)

// MatchResult is the compatibility verdict between two users' skill sets.
type MatchResult struct {
	Score        float64  `json:"score"`
	SharedSkills []string `json:"sharedSkills,omitempty"`
}

// Scorer computes a compatibility result from two skill sets. The actual
// scoring engine is an external collaborator; anything satisfying this
// pure-function interface can be plugged in.
type Scorer interface {
	Score(requesterWants, counterpartOffers []models.Skill) MatchResult
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(requesterWants, counterpartOffers []models.Skill) MatchResult

func (f ScorerFunc) Score(requesterWants, counterpartOffers []models.Skill) MatchResult {
	return f(requesterWants, counterpartOffers)
}

// OverlapScorer is the default wiring when no external engine is injected:
// the fraction of the requester's wanted skills the counterpart offers.
var OverlapScorer = ScorerFunc(func(requesterWants, counterpartOffers []models.Skill) MatchResult {
	if len(requesterWants) == 0 {
		return MatchResult{}
	}
	offered := make(map[string]struct{}, len(counterpartOffers))
	for _, skill := range counterpartOffers {
		offered[skill.Name] = struct{}{}
	}
	var shared []string
	for _, skill := range requesterWants {
		if _, ok := offered[skill.Name]; ok {
			shared = append(shared, skill.Name)
		}
	}
	return MatchResult{
		Score:        float64(len(shared)) / float64(len(requesterWants)),
		SharedSkills: shared,
	}
})

// IMatchService computes skill compatibility between two users.
type IMatchService interface {
	Compatibility(ctx context.Context, requesterID, counterpartID utils.SixID) (*MatchResult, error)
}

type matchService struct {
	users  IUserService
	skills ISkillService
	scorer Scorer
	rdb    *redis.Client
	ttl    time.Duration
}

// NewMatchService creates a new MatchService. A nil scorer falls back to
// OverlapScorer; rdb may be nil to disable the score cache (used in tests).
func NewMatchService(users IUserService, skills ISkillService, scorer Scorer, rdb *redis.Client, ttl time.Duration) IMatchService {
	if scorer == nil {
		scorer = OverlapScorer
	}
	return &matchService{users: users, skills: skills, scorer: scorer, rdb: rdb, ttl: ttl}
}

// Compatibility scores how well the counterpart's offered skills cover what
// the requester wants to learn. Results are cached per ordered user pair.
func (s *matchService) Compatibility(ctx context.Context, requesterID, counterpartID utils.SixID) (*MatchResult, error) {
	cacheKey := fmt.Sprintf("match:%s:%s", requesterID.String(), counterpartID.String())
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var result MatchResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	counterpart, err := s.users.FindByID(ctx, counterpartID)
	if err != nil {
		return nil, err
	}

	wants, err := s.skills.FindByIDs(ctx, requester.SkillsWanted)
	if err != nil {
		return nil, err
	}
	offers, err := s.skills.FindByIDs(ctx, counterpart.SkillsOffered)
	if err != nil {
		return nil, err
	}

	result := s.scorer.Score(wants, offers)

	if s.rdb != nil {
		if encoded, err := json.Marshal(result); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, encoded, s.ttl).Err(); err != nil {
				log.Printf("Match cache: failed to store %s: %v", cacheKey, err)
			}
		}
	}

	return &result, nil
}
