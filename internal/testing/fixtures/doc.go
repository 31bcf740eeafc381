// Package fixtures provides test data factories for the Questboard API.
//
// Each factory method inserts an entity with sensible defaults and returns
// the fully populated model. Option functions customize the defaults.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(tdb.DB)
//
// # Creating Test Data
//
// Factory methods create domain entities:
//
//	referee := f.CreateReferee(t)
//	player := f.CreatePlayer(t)
//	char := f.CreateCharacter(t, player)
//	quest := f.CreateAnnouncedQuest(t, referee)
//
// # Customization
//
// Use option functions for customization:
//
//	user := f.CreateMember(t, fixtures.WithDiscordID("123456789"))
//	quest := f.CreateQuest(t, referee, fixtures.WithStatus(model.QuestStatusRunning))
//
// All entities land in fixtures.DefaultGuildID unless the factory's GuildID
// field is changed first. Identifiers are minted from a process-wide counter,
// so they never collide within a run.
package fixtures
