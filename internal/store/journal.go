package store

// ListJournal returns the user's entries, newest date first.
func (s *Store) ListJournal(userID int64) ([]JournalEntry, error) {
	entries := []JournalEntry{}
	err := s.db.Where("user_id = ?", userID).Order("date DESC").Find(&entries).Error
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (s *Store) CreateJournalEntry(userID int64, date, content, mood string) (*JournalEntry, error) {
	e := &JournalEntry{Date: date, Content: content, Mood: mood, UserID: userID}
	if err := s.db.Create(e).Error; err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// UpdateJournalEntry changes content and mood. The user scope is part of
// the WHERE clause, so editing somebody else's entry reads as not found.
func (s *Store) UpdateJournalEntry(userID, id int64, content, mood string) error {
	res := s.db.Model(&JournalEntry{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"content": content, "mood": mood})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteJournalEntry removes an entry. Returns the number of rows
// removed; deleting a foreign or missing entry yields 0 without error.
func (s *Store) DeleteJournalEntry(userID, id int64) (int64, error) {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&JournalEntry{})
	return res.RowsAffected, translate(res.Error)
}
