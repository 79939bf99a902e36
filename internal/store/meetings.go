package store

// ListMeetingRooms returns all rooms, including the seeded defaults.
func (s *Store) ListMeetingRooms() ([]MeetingRoom, error) {
	rooms := []MeetingRoom{}
	if err := s.db.Find(&rooms).Error; err != nil {
		return nil, translate(err)
	}
	return rooms, nil
}

// ListMessages returns a room's chat history, oldest first.
func (s *Store) ListMessages(roomID int64) ([]Message, error) {
	msgs := []Message{}
	err := s.db.Where("room_id = ?", roomID).Order("timestamp ASC").Find(&msgs).Error
	if err != nil {
		return nil, translate(err)
	}
	return msgs, nil
}

func (s *Store) AddMessage(roomID int64, author, content, timestamp string) (*Message, error) {
	m := &Message{RoomID: roomID, Author: author, Content: content, Timestamp: timestamp}
	if err := s.db.Create(m).Error; err != nil {
		return nil, translate(err)
	}
	return m, nil
}

// ListSharingQueue returns the room's queue in arrival order.
func (s *Store) ListSharingQueue(roomID int64) ([]SharingQueueEntry, error) {
	queue := []SharingQueueEntry{}
	err := s.db.Where("room_id = ?", roomID).Order("timestamp ASC").Find(&queue).Error
	if err != nil {
		return nil, translate(err)
	}
	return queue, nil
}

// JoinSharingQueue adds an author to a room's queue. ErrDuplicate when
// they are already waiting in that room.
func (s *Store) JoinSharingQueue(roomID int64, author, timestamp string) (*SharingQueueEntry, error) {
	var count int64
	err := s.db.Model(&SharingQueueEntry{}).
		Where("room_id = ? AND author = ?", roomID, author).
		Count(&count).Error
	if err != nil {
		return nil, translate(err)
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	e := &SharingQueueEntry{RoomID: roomID, Author: author, Timestamp: timestamp}
	if err := s.db.Create(e).Error; err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// LeaveSharingQueue removes an author from a room's queue and reports how
// many entries were removed.
func (s *Store) LeaveSharingQueue(roomID int64, author string) (int64, error) {
	res := s.db.Where("room_id = ? AND author = ?", roomID, author).Delete(&SharingQueueEntry{})
	return res.RowsAffected, translate(res.Error)
}
