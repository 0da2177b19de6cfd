package session

// credentials is the username and password a Session authenticates with.
// The password is kept in a private buffer, zeroed by clear.
type credentials struct {
	username string
	password []byte
}

func newCredentials(username string, password []byte) *credentials {
	p := make([]byte, len(password))
	copy(p, password)
	return &credentials{username: username, password: p}
}

// clear zeroes the password and forgets the username
func (c *credentials) clear() {
	if c == nil {
		return
	}
	for i := range c.password {
		c.password[i] = 0
	}
	c.password = nil
	c.username = ""
}
