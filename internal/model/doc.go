// Package model contains the domain entities for Questboard: quests with
// their embedded signups, quest summaries, guild users, and characters.
//
// Entities are plain values with self-contained validation and
// state-transition methods. They never touch storage; repositories and
// services orchestrate persistence around them. Every entity carries the
// guild ID it belongs to, and nothing in this package is meaningful across
// guild boundaries.
package model
