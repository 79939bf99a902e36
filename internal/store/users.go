package store

// CreateUser inserts a new account. ErrDuplicate when the username is
// already taken.
func (s *Store) CreateUser(username, passwordHash string) (*User, error) {
	u := &User{Username: username, Password: passwordHash}
	if err := s.db.Create(u).Error; err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) UserByUsername(username string) (*User, error) {
	var u User
	if err := s.db.First(&u, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByID(id int64) (*User, error) {
	var u User
	if err := s.db.First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// SobrietyDate returns the stored start date, or nil when the user has
// not set one.
func (s *Store) SobrietyDate(userID int64) (*string, error) {
	u, err := s.UserByID(userID)
	if err != nil {
		return nil, err
	}
	return u.SobrietyStartDate, nil
}

func (s *Store) SetSobrietyDate(userID int64, date string) error {
	res := s.db.Model(&User{}).Where("id = ?", userID).Update("sobriety_start_date", date)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRefreshToken records an issued refresh token so it can be checked
// and revoked later.
func (s *Store) SaveRefreshToken(token string, userID int64, expiresAt string) error {
	rt := RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return translate(s.db.Create(&rt).Error)
}

// RefreshTokenExists reports whether the token is still on record, i.e.
// has not been revoked by logout.
func (s *Store) RefreshTokenExists(token string) (bool, error) {
	var count int64
	err := s.db.Model(&RefreshToken{}).Where("token = ?", token).Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

// DeleteRefreshToken revokes a token. Deleting an unknown token is a
// no-op, so logout never fails.
func (s *Store) DeleteRefreshToken(token string) error {
	return translate(s.db.Where("token = ?", token).Delete(&RefreshToken{}).Error)
}
