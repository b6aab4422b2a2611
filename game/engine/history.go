package engine

import "time"

// addActionToHistory records a player action. Failed actions are recorded
// too so clients can replay what the player attempted.
func (e *GameEngine) addActionToHistory(action, pieceID, instanceID string, orientationIndex, row, col int, success bool) {
	entry := ActionHistoryEntry{
		Action:           action,
		PieceID:          pieceID,
		InstanceID:       instanceID,
		OrientationIndex: orientationIndex,
		Row:              row,
		Col:              col,
		Success:          success,
		Timestamp:        time.Now().Unix(),
		ActionNumber:     e.totalActions + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	e.actionHistory = append(e.actionHistory, entry)
	e.totalActions++

	// Append to current segment history and increment its counter
	e.currentActions = append(e.currentActions, entry)
	e.currentActionsCount++
}
