package report

import (
	"context"
	"fmt"

	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/logging"
)

// Teacher generates English learning content at the owner's configured
// level. Returns empty strings when learning is disabled or generation
// fails; callers send nothing in that case.
type Teacher struct {
	gen      Generator
	settings *config.Store
}

// NewTeacher creates a teacher
func NewTeacher(gen Generator, settings *config.Store) *Teacher {
	return &Teacher{gen: gen, settings: settings}
}

// Lesson produces a short English lesson, or "" when disabled
func (t *Teacher) Lesson(ctx context.Context) string {
	if !t.settings.SettingBool("learning_enabled", false) {
		return ""
	}
	level := t.settings.Setting("learning_level", "Intermediate")
	logging.Info("report", "Generating English lesson for level %s", level)

	prompt := fmt.Sprintf(`You are an English teacher. The user wants to learn English at an %s level.

Please provide a short, interesting English lesson.
It could be:
- A new vocabulary word with definition and example sentence.
- An interesting idiom.
- A grammar tip.
- A fun fact about the language.

Make it engaging and concise.`, level)

	text, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Warn("report", "lesson failed: %v", err)
		return ""
	}
	return "🎓 **English Lesson**\n\n" + text
}

// WordOfTheDay produces a formatted word-of-the-day message, or "" on
// failure
func (t *Teacher) WordOfTheDay(ctx context.Context) string {
	level := t.settings.Setting("learning_level", "Intermediate")
	logging.Info("report", "Generating Word of the Day for level %s", level)

	prompt := fmt.Sprintf(`You are an English teacher. The user wants to learn English at an %s level.

Please provide a "Word of the Day".
Format:
**Word**: [The Word]
**Pronunciation**: [IPA or phonetic]
**Definition**: [Definition]
**Example**: [Example sentence]
**Fun Fact**: [Optional fun fact about the word]

Keep it concise and formatted for a chat message.`, level)

	text, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		logging.Warn("report", "word of the day failed: %v", err)
		return ""
	}
	return "📖 **Word of the Day**\n\n" + text
}
