// CLI tool to create a user with a bcrypt-hashed password and an optional
// physical profile.
// Usage: go run ./cmd/create-user
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"lg/fitness-tracker-api/internal/profile"
)

// prompter reads answers line by line.
type prompter struct {
	r *bufio.Reader
}

func (p prompter) ask(label string) string {
	fmt.Print(label + ": ")
	s, _ := p.r.ReadString('\n')
	return strings.TrimSpace(s)
}

// optionalFloat parses s, where empty means not provided, and applies check.
func optionalFloat(s string, check func(float64) error) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if err := check(v); err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalGoal(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if err := profile.CheckGoal(s); err != nil {
		return nil, err
	}
	return &s, nil
}

// checkAccount applies the same rules as registration through the API.
func checkAccount(name, email, password string) error {
	if err := profile.CheckName(name); err != nil {
		return err
	}
	if err := profile.CheckEmail(email); err != nil {
		return err
	}
	return profile.CheckPassword(password)
}

func main() {
	log := logrus.New()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Fatal("failed to load .env")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer conn.Close(ctx)

	p := prompter{r: bufio.NewReader(os.Stdin)}
	name := p.ask("Name")
	email := strings.ToLower(p.ask("Email"))
	password := p.ask("Password")
	if err := checkAccount(name, email, password); err != nil {
		log.WithError(err).Fatal("invalid account details")
	}

	height, err := optionalFloat(p.ask("Height cm (optional)"), profile.CheckHeight)
	if err != nil {
		log.WithError(err).Fatal("invalid height")
	}
	weight, err := optionalFloat(p.ask("Weight kg (optional)"), profile.CheckWeight)
	if err != nil {
		log.WithError(err).Fatal("invalid weight")
	}
	goal, err := optionalGoal(p.ask("Goal (optional)"))
	if err != nil {
		log.WithError(err).Fatal("invalid goal")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}

	var userID int
	err = conn.QueryRow(ctx,
		`INSERT INTO users (name, email, password, height_cm, weight_kg, goal)
		 VALUES (@name, @email, @password, @heightCm, @weightKg, @goal)
		 RETURNING id`,
		pgx.NamedArgs{
			"name": name, "email": email, "password": string(hash),
			"heightCm": height, "weightKg": weight, "goal": goal,
		}).Scan(&userID)
	if err != nil {
		log.WithError(err).Fatal("failed to create user")
	}

	log.WithFields(logrus.Fields{"id": userID, "email": email}).Info("user created")
}
