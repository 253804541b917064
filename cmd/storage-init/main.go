// Command storage-init creates the gateway database schema and optionally
// seeds a user with a starter project. Running it again changes nothing.
package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
	"taskboard/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")
	if err := run(context.Background(), os.Getenv); err != nil {
		log.Fatalf("storage init: %v", err)
	}
	log.Info("storage init complete")
}

func run(ctx context.Context, getenv func(string) string) error {
	path := getenv("DATABASE_PATH")
	if path == "" {
		return errors.New("missing DATABASE_PATH")
	}
	store, err := storage.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	user := domain.User{
		ID:    getenv("SEED_USER_ID"),
		Name:  getenv("SEED_USER_NAME"),
		Email: getenv("SEED_USER_EMAIL"),
	}
	if user.ID == "" {
		return nil
	}
	if err := store.EnsureUser(ctx, user); err != nil {
		return err
	}
	log.WithField("user_id", user.ID).Info("seed user ready")

	title := strings.TrimSpace(getenv("SEED_PROJECT_TITLE"))
	if title == "" {
		return nil
	}
	return seedProject(ctx, store, user, title)
}

func seedProject(ctx context.Context, store *storage.Storage, owner domain.User, title string) error {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if p.Title == title && p.CreatedBy == owner.ID {
			log.WithField("project_id", p.ID).Debug("seed project exists")
			return nil
		}
	}
	detail, err := store.CreateProject(ctx, owner, domain.NewProject{Title: title})
	if err != nil {
		return err
	}
	log.WithField("project_id", detail.ID).Info("seed project created")
	return nil
}
