package domain

// Snapshot is the complete database: every user and every task, in
// insertion order.
type Snapshot struct {
	Users []User `json:"users"`
	Tasks []Task `json:"tasks"`
}

// EmptySnapshot returns a snapshot whose collections serialise as [] rather
// than null.
func EmptySnapshot() Snapshot {
	return Snapshot{Users: []User{}, Tasks: []Task{}}
}

// Normalize replaces nil collections with empty ones.
func (s *Snapshot) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
}

// Validate checks every record and the uniqueness of user and task ids.
func (s *Snapshot) Validate() error {
	if s == nil {
		return Fail("snapshot.validate", ErrInvalidSnapshot, "nil snapshot")
	}
	seenUsers := make(map[string]struct{}, len(s.Users))
	for _, u := range s.Users {
		if err := u.Validate(); err != nil {
			return err
		}
		if _, dup := seenUsers[u.ID]; dup {
			return Failf("snapshot.validate", ErrInvalidSnapshot, "duplicate user id %q", u.ID)
		}
		seenUsers[u.ID] = struct{}{}
	}
	seenTasks := make(map[string]struct{}, len(s.Tasks))
	for _, t := range s.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seenTasks[t.ID]; dup {
			return Failf("snapshot.validate", ErrInvalidSnapshot, "duplicate task id %s", t.ID)
		}
		seenTasks[t.ID] = struct{}{}
	}
	return nil
}

// FindUser returns the index of the user with the given id, or -1.
func (s *Snapshot) FindUser(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the task with the given id, or -1.
func (s *Snapshot) FindTask(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveTask deletes the task at index i, preserving order.
func (s *Snapshot) RemoveTask(i int) {
	s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
}
