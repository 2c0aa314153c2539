package notification

import "gorm.io/gorm"

const selectMessageSQL = `SELECT id FROM messages WHERE message_id = ? LIMIT 1`

// ResolveMessage returns the row id of a stored message carrying messageID.
// Provider ids may repeat across rows; the first row the store yields is
// returned without any ranking.
func ResolveMessage(tx *gorm.DB, messageID string) (int64, bool, error) {
	var id int64
	res := tx.Raw(selectMessageSQL, messageID).Scan(&id)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return id, true, nil
}
