// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package responder

// ============================================================================
// RULE TYPE
// ============================================================================

// Rule maps a keyword set to a reply template.
//
// Keywords match anywhere in the normalized input, spaces included, so
// "hi " and "hi," catch a leading greeting without firing inside "this" or
// "sushi". Exact entries only match the whole (trimmed) input.
//
// Templates may reference {bot}, {time} and {date}.
type Rule struct {
	Name     string
	Keywords []string
	Exact    []string
	Template string
}

// Rule names.
const (
	RuleGreeting  = "greeting"
	RuleName      = "name"
	RuleWeather   = "weather"
	RuleTime      = "time"
	RuleDate      = "date"
	RuleHowAreYou = "how_are_you"
	RuleThanks    = "thanks"
	RuleFarewell  = "farewell"
	RuleHelp      = "help"
	RuleFallback  = "fallback"
)

// DefaultRules returns the built-in rules in match order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     RuleGreeting,
			Keywords: []string{"hello", "hey", "hi ", "hi,", "hi!", "greetings", "good morning", "good afternoon", "good evening"},
			Exact:    []string{"hi", "yo"},
			Template: "Hello there! 👋 How can I help you today?",
		},
		{
			Name:     RuleName,
			Keywords: []string{"your name", "who are you"},
			Template: "I'm {bot}, your friendly virtual assistant! 🤖",
		},
		{
			Name:     RuleWeather,
			Keywords: []string{"weather", "rain", "sunny"},
			Template: "I can't check the weather, but I hope it's nice where you are! ☀️",
		},
		{
			Name:     RuleTime,
			Keywords: []string{"what time", "the time"},
			Template: "It's currently {time}. ⏰",
		},
		{
			Name:     RuleDate,
			Keywords: []string{"date", "what day", "today"},
			Template: "Today is {date}. 📅",
		},
		{
			Name:     RuleHowAreYou,
			Keywords: []string{"how are you", "how's it going", "how are things"},
			Template: "I'm doing great, thanks for asking! How about you? 😊",
		},
		{
			Name:     RuleThanks,
			Keywords: []string{"thank", "thx"},
			Template: "You're welcome! Happy to help! 🙌",
		},
		{
			Name:     RuleFarewell,
			Keywords: []string{"bye", "goodbye", "see you", "later"},
			Template: "Goodbye! Have a wonderful day! 👋",
		},
		{
			Name:     RuleHelp,
			Keywords: []string{"help", "what can you do"},
			Template: "I can chat with you, tell you the time or date, and react to your messages. Type /help to see the available commands!",
		},
	}
}

// DefaultFallbacks is the pool used when no rule matches.
func DefaultFallbacks() []string {
	return []string{
		"That's interesting! Tell me more... 🤔",
		"I see what you mean!",
		"That's a great point! 👍",
		"Hmm, let me think about that...",
		"Interesting perspective! 💡",
		"I understand. Anything else?",
		"That makes sense to me!",
		"Cool! What else is on your mind?",
	}
}
