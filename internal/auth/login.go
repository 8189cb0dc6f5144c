package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/triangle-practice/internal/roster"
)

var (
	ErrMissingStudent  = errors.New("teacher and student are required")
	ErrUnknownStudent  = errors.New("student not on roster")
	ErrMissingTeacher  = errors.New("teacher and password are required")
	ErrInvalidPassword = errors.New("invalid password")
)

// Text shown on the login forms.
const (
	MsgUnknownStudent  = "That name is not on your teacher's roster."
	MsgMissingTeacher  = "Select your name and enter password."
	MsgInvalidPassword = "Incorrect password."
)

// LoginError wraps one of the sentinels above with the form text.
type LoginError struct {
	Msg string
	Err error
}

func (e *LoginError) Error() string       { return e.Err.Error() }
func (e *LoginError) Unwrap() error       { return e.Err }
func (e *LoginError) UserMessage() string { return e.Msg }

func loginError(err error, msg string) error { return &LoginError{Msg: msg, Err: err} }

// Authenticator turns login forms into tokens.
type Authenticator struct {
	svc    *AuthService
	roster *roster.Roster
	// teacher name -> bcrypt hash
	hashes map[string]string
}

func NewAuthenticator(svc *AuthService, r *roster.Roster, teacherHashes map[string]string) *Authenticator {
	if r == nil {
		r = roster.Default()
	}
	h := make(map[string]string, len(teacherHashes))
	for k, v := range teacherHashes {
		h[k] = v
	}
	return &Authenticator{svc: svc, roster: r, hashes: h}
}

// Student checks the pair against the roster. There is no password.
func (a *Authenticator) Student(teacher, student string) (string, error) {
	teacher, student = strings.TrimSpace(teacher), strings.TrimSpace(student)
	if teacher == "" || student == "" {
		return "", loginError(ErrMissingStudent, roster.MsgSelectIdentity)
	}
	if !a.roster.Has(teacher, student) {
		return "", loginError(ErrUnknownStudent, MsgUnknownStudent)
	}
	return a.svc.IssueJWT(student, RoleStudent, teacher)
}

// Teacher verifies the password against the configured bcrypt hash.
// Teachers without a configured hash cannot log in.
func (a *Authenticator) Teacher(name, password string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return "", loginError(ErrMissingTeacher, MsgMissingTeacher)
	}
	hash, ok := a.hashes[name]
	if !ok || !a.roster.HasTeacher(name) {
		return "", loginError(ErrInvalidPassword, MsgInvalidPassword)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", loginError(ErrInvalidPassword, MsgInvalidPassword)
	}
	return a.svc.IssueJWT(name, RoleTeacher, name)
}

// HashPassword produces a value for TEACHER_CREDENTIALS.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
