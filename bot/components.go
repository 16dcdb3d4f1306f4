package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quizbot/application/dto"

	"github.com/bwmarrin/discordgo"
)

// Component custom ids carry everything needed to resolve an answer:
//
//	quiz:<question>:<choice>:<issued ms>
//	daily:<question>:<choice>:<issued ms>
//	rob:<victim>:<question>:<choice>:<issued ms>
//	gold:<event>:<choice>:<issued ms>
const (
	actionQuiz  = "quiz"
	actionDaily = "daily"
	actionRob   = "rob"
	actionGold  = "gold"
)

// answerButton is a decoded answer button press
type answerButton struct {
	Action   string
	TargetID int64 // victim for robberies, zero otherwise
	RefID    int64 // question id, or event id for golden answers
	Choice   int
	Issued   time.Time
}

func encodeAnswerButton(b answerButton) string {
	parts := []string{b.Action}
	if b.Action == actionRob {
		parts = append(parts, strconv.FormatInt(b.TargetID, 10))
	}
	parts = append(parts,
		strconv.FormatInt(b.RefID, 10),
		strconv.Itoa(b.Choice),
		strconv.FormatInt(b.Issued.UnixMilli(), 10),
	)
	return strings.Join(parts, ":")
}

func decodeAnswerButton(customID string) (answerButton, error) {
	parts := strings.Split(customID, ":")
	if len(parts) == 0 {
		return answerButton{}, fmt.Errorf("empty custom id")
	}

	b := answerButton{Action: parts[0]}
	rest := parts[1:]
	switch b.Action {
	case actionQuiz, actionDaily, actionGold:
		if len(rest) != 3 {
			return answerButton{}, fmt.Errorf("malformed %s button %q", b.Action, customID)
		}
	case actionRob:
		if len(rest) != 4 {
			return answerButton{}, fmt.Errorf("malformed rob button %q", customID)
		}
		target, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return answerButton{}, fmt.Errorf("invalid victim in %q: %w", customID, err)
		}
		b.TargetID = target
		rest = rest[1:]
	default:
		return answerButton{}, fmt.Errorf("unknown button action %q", b.Action)
	}

	ref, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return answerButton{}, fmt.Errorf("invalid reference in %q: %w", customID, err)
	}
	choice, err := strconv.Atoi(rest[1])
	if err != nil {
		return answerButton{}, fmt.Errorf("invalid choice in %q: %w", customID, err)
	}
	issued, err := strconv.ParseInt(rest[2], 10, 64)
	if err != nil {
		return answerButton{}, fmt.Errorf("invalid timestamp in %q: %w", customID, err)
	}

	b.RefID = ref
	b.Choice = choice
	b.Issued = time.UnixMilli(issued)
	return b, nil
}

// Latency is the time between showing the question and the button press
func (b answerButton) Latency(now time.Time) time.Duration {
	if latency := now.Sub(b.Issued); latency > 0 {
		return latency
	}
	return 0
}

var optionLabels = []string{"A", "B", "C", "D"}

// questionEmbed renders a question with lettered options
func questionEmbed(title string, q dto.QuestionDTO, color int) *discordgo.MessageEmbed {
	var body strings.Builder
	body.WriteString(q.Text)
	body.WriteString("\n\n")
	for i, option := range q.Options {
		label := fmt.Sprintf("%d", i+1)
		if i < len(optionLabels) {
			label = optionLabels[i]
		}
		fmt.Fprintf(&body, "**%s.** %s\n", label, option)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: body.String(),
		Color:       color,
	}
	if q.Category != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%s · %s", q.Category, q.Difficulty)}
	}
	return embed
}

// answerButtons builds one button per option; template supplies everything but the choice
func answerButtons(template answerButton, optionCount int) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, optionCount)
	for i := 0; i < optionCount; i++ {
		b := template
		b.Choice = i
		label := fmt.Sprintf("%d", i+1)
		if i < len(optionLabels) {
			label = optionLabels[i]
		}
		buttons[i] = discordgo.Button{
			Label:    label,
			Style:    discordgo.PrimaryButton,
			CustomID: encodeAnswerButton(b),
		}
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}
