// Package repositories implements SQLite persistence for run history and remembered choices.
//
// Key Implementations:
//   - [RunRepository] : finished search runs with their outcomes, soft-deleted
//   - [ChoiceRepository] : disambiguation decisions keyed by normalized query
//   - [RunRecorderAdapter] : tasks.RunRecorder over [RunRepository]
//   - [ChoiceStoreAdapter] : tasks.ChoiceStore over [ChoiceRepository]
//
// Runs carry a sequence number (run #42) next to their UUID. The [NextSequence] function atomically
// increments per-table sequence counters in dedicated sequence tables; [RunRepository.Create] does it in
// the same transaction as the insert so a failed insert does not burn a number.
package repositories
