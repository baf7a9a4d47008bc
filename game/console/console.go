// Package console implements the administrative text console behind
// POST /api/dev/command. Commands never fail the request: every outcome,
// errors included, is reported as output text.
package console

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kasuganosora/questforge/server/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the password shared by the demo accounts db:seed creates.
const SeedPassword = "123456"

// Result is the wire shape of every console response.
type Result struct {
	Output string `json:"output"`
}

// SeedAccount describes one demo account inserted by db:seed.
type SeedAccount struct {
	Email string
	Name  string
	Role  model.Role
}

// SeedAccounts lists the db:seed demo accounts in insertion order.
var SeedAccounts = []SeedAccount{
	{Email: "kerubin.player@test.com", Name: "Kerubin Player", Role: model.RolePlayer},
	{Email: "kerubin.gm@test.com", Name: "Kerubin GM", Role: model.RoleGameMaster},
	{Email: "kerubin.adm@test.com", Name: "Kerubin Adm", Role: model.RoleAdmin},
}

type handlerFn func(ctx context.Context, args []string) (string, error)

type command struct {
	usage string
	help  string
	run   handlerFn
}

// Console interprets console command lines against the database.
type Console struct {
	db       *gorm.DB
	logger   *zap.Logger
	seedHash string
	commands map[string]command
}

// New builds a Console. The demo-account password hash is computed once here
// with the given bcrypt cost.
func New(db *gorm.DB, logger *zap.Logger, bcryptCost int) (*Console, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("console: hash seed password: %w", err)
	}
	c := &Console{db: db, logger: logger, seedHash: string(hash)}
	c.commands = map[string]command{
		"help":       {usage: "help", help: "Show this help message", run: c.help},
		"users:list": {usage: "users:list", help: "List all users", run: c.usersList},
		"db:stats":   {usage: "db:stats", help: "Show database statistics", run: c.dbStats},
		"db:reset":   {usage: "db:reset", help: "Clear all campaign data, keeping users (Dangerous!)", run: c.dbReset},
		"db:seed":    {usage: "db:seed", help: "Clear all data and seed with demo accounts (Dangerous!)", run: c.dbSeed},
		"make:admin": {usage: "make:admin <email>", help: "Make a user an admin", run: c.makeAdmin},
	}
	return c, nil
}

// Name returns the command word of a console line, or "" for a blank line.
func Name(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Execute runs one command line and returns its output.
func (c *Console) Execute(ctx context.Context, line string) Result {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{Output: "Type 'help' for available commands."}
	}
	name, args := fields[0], fields[1:]
	cmd, ok := c.commands[name]
	if !ok {
		return Result{Output: fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", name)}
	}
	out, err := cmd.run(ctx, args)
	if err != nil {
		c.logger.Warn("console command failed", zap.String("command", name), zap.Error(err))
		return Result{Output: "Error: " + err.Error()}
	}
	return Result{Output: out}
}

func (c *Console) help(context.Context, []string) (string, error) {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:")
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(&b, "\n- %s: %s", cmd.usage, cmd.help)
	}
	return b.String(), nil
}

func (c *Console) usersList(ctx context.Context, _ []string) (string, error) {
	var users []model.User
	if err := c.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "No users.", nil
	}
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, fmt.Sprintf("[%s] %s (%s)", u.Role, u.Name, u.Email))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Console) dbStats(ctx context.Context, _ []string) (string, error) {
	tables := []struct {
		label string
		model interface{}
	}{
		{"Users", &model.User{}},
		{"Campaigns", &model.Campaign{}},
		{"Characters", &model.Character{}},
		{"Members", &model.Membership{}},
		{"NPCs", &model.NPC{}},
		{"Items", &model.Item{}},
		{"Sessions", &model.GameSession{}},
		{"Media", &model.Media{}},
	}
	var b strings.Builder
	b.WriteString("Database Statistics:")
	for _, t := range tables {
		var n int64
		if err := c.db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n- %s: %d", t.label, n)
	}
	return b.String(), nil
}

func (c *Console) makeAdmin(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: make:admin <email>", nil
	}
	email := strings.ToLower(args[0])
	res := c.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("role", model.RoleAdmin)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "User not found: " + email, nil
	}
	return fmt.Sprintf("User %s is now an ADMIN.", email), nil
}

// dbReset deletes campaign data table by table, children first. It is not
// atomic: a failure leaves the tables already cleared empty.
func (c *Console) dbReset(ctx context.Context, _ []string) (string, error) {
	all := c.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&model.InventoryEntry{},
		&model.Media{},
		&model.GameSession{},
		&model.Item{},
		&model.NPC{},
		&model.Membership{},
		&model.Character{},
		&model.Campaign{},
	} {
		if err := all.Delete(m).Error; err != nil {
			return "", err
		}
	}
	return "Database cleared (Campaigns, Characters, Members, Items, NPCs, Sessions, Media).", nil
}

// dbSeed removes every user, which cascades to all campaign data, then
// inserts the demo accounts.
func (c *Console) dbSeed(ctx context.Context, _ []string) (string, error) {
	tx := c.db.WithContext(ctx)
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.User{}).Error; err != nil {
		return "", err
	}
	for _, acc := range SeedAccounts {
		u := &model.User{Email: acc.Email, Name: acc.Name, Role: acc.Role, PasswordHash: c.seedHash}
		if err := tx.Create(u).Error; err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Database reset and seeded with %d demo accounts (Password: %s).", len(SeedAccounts), SeedPassword), nil
}
