// Package bot is the thin Discord layer over the quest lifecycle engine.
//
// It owns no business rules: slash commands and button presses resolve the
// acting guild member, then call the same services the HTTP API calls, so
// every guard (roles, state transitions, duplicate signups, cooldowns) runs
// exactly once, in one place.
//
// The only linkage between a Discord message and a quest is the embed
// footer, "Quest ID: <id>". BuildQuestEmbed writes it and QuestIDFromFooter
// recovers it; nothing else is stored in the message.
//
// Signup button presses are not applied inline. They are buffered per quest
// in a SignupBuffer and flushed through QuestService.AddSignup on a timer,
// so a burst of presses right after an announcement becomes a handful of
// ordered writes instead of a stampede.
package bot
