package store

func (s *Store) ListInventory(userID int64) ([]InventoryEntry, error) {
	entries := []InventoryEntry{}
	if err := s.db.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

func (s *Store) CreateInventoryEntry(userID int64, e InventoryEntry) (*InventoryEntry, error) {
	e.ID = 0
	e.UserID = userID
	if err := s.db.Create(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) DeleteInventoryEntry(userID, id int64) (int64, error) {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&InventoryEntry{})
	return res.RowsAffected, translate(res.Error)
}
