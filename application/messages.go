package application

import (
	"fmt"

	"quizbot/domain/entities"
)

type messageKey string

const (
	msgGoldenStarted  messageKey = "golden_started"
	msgGoldenWon      messageKey = "golden_won"
	msgGoldenExpired  messageKey = "golden_expired"
	msgRobberySuccess messageKey = "robbery_success"
	msgRobberyFailed  messageKey = "robbery_failed"
	msgSpecialStarted messageKey = "special_started"
)

var messageCatalog = map[string]map[messageKey]string{
	"en": {
		msgGoldenStarted:  "🌟 A golden question is live! Worth %d points (jackpot %d). First correct answer before %s wins.",
		msgGoldenWon:      "🏆 <@%d> answered the golden question and won %d points!",
		msgGoldenExpired:  "⌛ Nobody answered the golden question. %d points roll into the next jackpot.",
		msgRobberySuccess: "💰 <@%d> robbed <@%d> and got away with %d coins.",
		msgRobberyFailed:  "🚓 <@%d> failed to rob <@%d>.",
		msgSpecialStarted: "🎉 Special event %s is running until %s!",
	},
	"es": {
		msgGoldenStarted:  "🌟 ¡Pregunta dorada activa! Vale %d puntos (bote %d). La primera respuesta correcta antes de las %s gana.",
		msgGoldenWon:      "🏆 ¡<@%d> respondió la pregunta dorada y ganó %d puntos!",
		msgGoldenExpired:  "⌛ Nadie respondió la pregunta dorada. %d puntos pasan al próximo bote.",
		msgRobberySuccess: "💰 <@%d> robó a <@%d> y se llevó %d monedas.",
		msgRobberyFailed:  "🚓 <@%d> no consiguió robar a <@%d>.",
		msgSpecialStarted: "🎉 ¡Evento especial %s activo hasta las %s!",
	},
}

func renderMessage(locale string, key messageKey, args ...any) string {
	catalog, ok := messageCatalog[locale]
	if !ok {
		catalog = messageCatalog[entities.DefaultLocale]
	}
	return fmt.Sprintf(catalog[key], args...)
}
