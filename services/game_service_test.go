package services

import (
	"sync"
	"time"

	"connect4-server/connect4"
)

func (s *ServiceSuite) wins(uid string) (int64, int64) {
	u, err := s.users.GetUser(s.ctx, uid)
	s.Require().NoError(err)
	return u.Wins, u.Losses
}

func (s *ServiceSuite) TestNewGameFromPairing() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	s.Equal("a", g.PlayerOne)
	s.Equal("b", g.PlayerTwo)
	s.Equal(string(connect4.StateMoveOne), g.State)
	s.Empty(g.Board)
}

func (s *ServiceSuite) TestMakeMoveRejections() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	_, err := s.games.MakeMove(s.ctx, g.UUID, "b", 3)
	s.ErrorIs(err, connect4.ErrNotYourTurn)
	_, err = s.games.MakeMove(s.ctx, g.UUID, "a", 7)
	s.ErrorIs(err, connect4.ErrIllegalMove)
	_, err = s.games.MakeMove(s.ctx, "missing", "a", 3)
	s.ErrorIs(err, ErrNotFound)

	got, err := s.games.GetGame(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Empty(got.Board)
	s.Equal(string(connect4.StateMoveOne), got.State)
	s.Zero(got.Version)
}

func (s *ServiceSuite) TestWinRecordsStatsOnce() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	done := s.play(g.UUID, "3232323")
	s.Equal(string(connect4.StateWinOne), done.State)
	s.Equal("3232323", done.Board)

	_, err := s.games.MakeMove(s.ctx, g.UUID, "b", 0)
	s.ErrorIs(err, connect4.ErrGameOver)
	_, err = s.games.Forfeit(s.ctx, g.UUID, "a")
	s.ErrorIs(err, connect4.ErrGameOver)
	s.clock.Advance(time.Hour)
	_, err = s.games.GetGame(s.ctx, g.UUID)
	s.Require().NoError(err)

	w, l := s.wins("a")
	s.Equal(int64(1), w)
	s.Zero(l)
	w, l = s.wins("b")
	s.Zero(w)
	s.Equal(int64(1), l)
}

func (s *ServiceSuite) TestDrawLeavesCounters() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	done := s.play(g.UUID, "545062455041104565311226266362030334314210")
	s.Equal(string(connect4.StateDraw), done.State)

	for _, uid := range []string{"a", "b"} {
		w, l := s.wins(uid)
		s.Zero(w)
		s.Zero(l)
	}
}

func (s *ServiceSuite) TestForfeit() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	s.mustUser("c", "Carol")
	g := s.startGame("a", "b")

	_, err := s.games.Forfeit(s.ctx, g.UUID, "c")
	s.ErrorIs(err, connect4.ErrNotParticipant)

	done, err := s.games.Forfeit(s.ctx, g.UUID, "b")
	s.Require().NoError(err)
	s.Equal(string(connect4.StateFFTwo), done.State)

	w, _ := s.wins("a")
	s.Equal(int64(1), w)
	_, l := s.wins("b")
	s.Equal(int64(1), l)
}

func (s *ServiceSuite) TestViewGameOnlyForPlayers() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	s.mustUser("c", "Carol")
	g := s.startGame("a", "b")
	s.play(g.UUID, "3")

	s.clock.Advance(3 * time.Minute)
	_, err := s.games.ViewGame(s.ctx, g.UUID, "c")
	s.ErrorIs(err, connect4.ErrNotParticipant)
	_, err = s.games.ViewGame(s.ctx, g.UUID, "")
	s.ErrorIs(err, connect4.ErrNotParticipant)
	_, err = s.games.ViewGame(s.ctx, "missing", "a")
	s.ErrorIs(err, ErrNotFound)

	w, _ := s.wins("a")
	s.Zero(w)

	got, err := s.games.ViewGame(s.ctx, g.UUID, "b")
	s.Require().NoError(err)
	s.Equal(string(connect4.StateTimeoutTwo), got.State)
}

func (s *ServiceSuite) TestTimeoutOnPoll() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")
	s.play(g.UUID, "3")

	s.clock.Advance(3 * time.Minute)
	got, err := s.games.GetGame(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal(string(connect4.StateTimeoutTwo), got.State)

	again, err := s.games.GetGame(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal(got.Version, again.Version)

	w, _ := s.wins("a")
	s.Equal(int64(1), w)
	_, l := s.wins("b")
	s.Equal(int64(1), l)
}

func (s *ServiceSuite) TestMoveAfterDeadlineEndsGame() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	s.clock.Advance(5 * time.Minute)
	_, err := s.games.MakeMove(s.ctx, g.UUID, "a", 3)
	s.ErrorIs(err, connect4.ErrGameOver)

	got, err := s.games.GetGame(s.ctx, g.UUID)
	s.Require().NoError(err)
	s.Equal(string(connect4.StateTimeoutOne), got.State)
	s.Empty(got.Board)
}

func (s *ServiceSuite) TestSweepTimeouts() {
	for _, uid := range []string{"a", "b", "c", "d"} {
		s.mustUser(uid, "player "+uid)
	}
	g1 := s.startGame("a", "b")
	s.startGame("c", "d")
	s.play(g1.UUID, "0")

	n, err := s.games.SweepTimeouts(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.clock.Advance(3 * time.Minute)
	n, err = s.games.SweepTimeouts(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.games.SweepTimeouts(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	_, l := s.wins("b")
	s.Equal(int64(1), l)
	_, l = s.wins("c")
	s.Equal(int64(1), l)
}

func (s *ServiceSuite) TestConcurrentForfeitsApplyOnce() {
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := "a"
			if i%2 == 1 {
				uid = "b"
			}
			_, err := s.games.Forfeit(s.ctx, g.UUID, uid)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, connect4.ErrGameOver)
	}
	s.Equal(1, ok)

	wa, la := s.wins("a")
	wb, lb := s.wins("b")
	s.Equal(int64(1), wa+wb)
	s.Equal(int64(1), la+lb)
}

func (s *ServiceSuite) TestCommittedChangesArePublishedAndArchived() {
	archive := make(chanArchiver, 1)
	s.games.Archive = archive
	s.mustUser("a", "Alice")
	s.mustUser("b", "Bob")
	g := s.startGame("a", "b")
	before := s.events.count()

	s.play(g.UUID, "3232323")
	s.Equal(before+7, s.events.count())

	select {
	case call := <-archive:
		s.Equal(g.UUID, call.uuid)
		s.Equal("3232323", call.board)
	case <-time.After(5 * time.Second):
		s.Fail("finished game was not archived")
	}
}

func (s *ServiceSuite) TestListGamesForUser() {
	for _, uid := range []string{"a", "b", "c"} {
		s.mustUser(uid, "player "+uid)
	}
	first := s.startGame("a", "b")
	_, err := s.games.Forfeit(s.ctx, first.UUID, "a")
	s.Require().NoError(err)
	second := s.startGame("c", "a")

	games, err := s.games.ListGamesForUser(s.ctx, "a", 0)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(second.UUID, games[0].UUID)
	s.Equal(first.UUID, games[1].UUID)

	games, err = s.games.ListGamesForUser(s.ctx, "b", 10)
	s.Require().NoError(err)
	s.Len(games, 1)
}
