package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencog/question2atomese/internal/util"
	"github.com/opencog/question2atomese/pkg/common"
	"github.com/opencog/question2atomese/pkg/logger"
	"github.com/opencog/question2atomese/pkg/question"
	"github.com/opencog/question2atomese/pkg/store"
	"github.com/opencog/question2atomese/pkg/translate"
)

// ProcessTranslateMessage translates the question in body and saves it.
// Undecodable or untranslatable messages return a permanent error.
func ProcessTranslateMessage(
	ctx context.Context,
	client *translate.Client,
	storage store.TranslationStorage,
	body []byte,
) (*common.Translation, error) {
	var p question.Parsed
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to decode message: %w", err))
	}

	t, err := client.Translate(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := storage.SaveTranslations(ctx, []common.Translation{*t}); err != nil {
		return nil, fmt.Errorf("failed to save translation: %w", err)
	}

	logger.Info("[Queue] Translated question", "id", t.ID, "question_id", t.QuestionID, "type", t.Type)
	return t, nil
}
