package services

func (s *ServiceSuite) TestCreateUser() {
	u := s.mustUser("u1", "  Jane Doe ")
	s.Equal("Jane Doe", u.Username)
	s.Equal("jane-doe", u.Handle)
	s.Zero(u.Wins)
	s.Zero(u.Losses)

	got, err := s.users.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("u1@example.com", got.Email)
}

func (s *ServiceSuite) TestCreateUserNormalisesUsername() {
	u := s.mustUser("u1", "Café")
	s.Equal("Café", u.Username)
}

func (s *ServiceSuite) TestCreateUserRejections() {
	s.mustUser("u1", "Jane Doe")

	_, err := s.users.CreateUser(s.ctx, "u1", "Someone Else", "")
	s.ErrorIs(err, ErrDuplicate)
	_, err = s.users.CreateUser(s.ctx, "u2", "jane doe", "")
	s.ErrorIs(err, ErrDuplicate)
	_, err = s.users.CreateUser(s.ctx, "u3", "   ", "")
	s.ErrorIs(err, ErrInvalidInput)
	_, err = s.users.CreateUser(s.ctx, "", "Nobody", "")
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *ServiceSuite) TestUpdateBio() {
	s.mustUser("u1", "Jane")

	u, err := s.users.UpdateBio(s.ctx, "u1", "  plays column three  ")
	s.Require().NoError(err)
	s.Equal("plays column three", u.Bio)

	got, err := s.users.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("plays column three", got.Bio)

	long := make([]rune, maxBioLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.users.UpdateBio(s.ctx, "u1", string(long))
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.users.UpdateBio(s.ctx, "ghost", "hi")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceSuite) TestDeleteUser() {
	s.mustUser("u1", "Jane")

	u, err := s.users.DeleteUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("u1", u.UID)

	_, err = s.users.GetUser(s.ctx, "u1")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.users.DeleteUser(s.ctx, "u1")
	s.ErrorIs(err, ErrNotFound)

	// the handle is free again
	s.mustUser("u2", "Jane")
}
