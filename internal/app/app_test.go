package app

import (
	"testing"

	"curve-engine/internal/config"
	"curve-engine/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type captureRecorder struct {
	recs []model.TradeRecord
}

func (c *captureRecorder) Add(rec model.TradeRecord) {
	c.recs = append(c.recs, rec)
}

func TestFanout_ForwardsToAllRecorders(t *testing.T) {
	first := &captureRecorder{}
	second := &captureRecorder{}

	f := fanout{first, second}
	rec := model.TradeRecord{
		UserID:  "u1",
		TokenID: "meme",
		Side:    "buy",
		Amount:  decimal.NewFromInt(100),
	}
	f.Add(rec)

	assert.Len(t, first.recs, 1)
	assert.Len(t, second.recs, 1)
	assert.Equal(t, "meme", first.recs[0].TokenID)
	assert.Equal(t, "meme", second.recs[0].TokenID)
}

func TestClassificationPolicy_Default(t *testing.T) {
	a := &App{Config: &config.Config{}}

	policy := a.classificationPolicy()
	assert.Equal(t, model.ClassificationHuman, policy.Classify(model.VerificationOrb))
	assert.Equal(t, model.ClassificationHuman, policy.Classify(model.VerificationPhone))
	assert.Equal(t, model.ClassificationBot, policy.Classify(model.VerificationDevice))
	assert.Equal(t, model.ClassificationBot, policy.Classify(model.VerificationNone))
}

func TestClassificationPolicy_Override(t *testing.T) {
	a := &App{Config: &config.Config{HumanLevels: "orb, Device"}}

	policy := a.classificationPolicy()
	assert.Equal(t, model.ClassificationHuman, policy.Classify(model.VerificationOrb))
	assert.Equal(t, model.ClassificationHuman, policy.Classify(model.VerificationDevice))
	assert.Equal(t, model.ClassificationBot, policy.Classify(model.VerificationPhone))
	assert.Equal(t, model.ClassificationBot, policy.Classify(model.VerificationNone))
}
