// Package document stores each document as its own branch of a bare
// repository. A document is created from a model directory, edited with
// conflict detection and archived into a second branch that keeps its
// own lineage.
package document

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

const (
	// DefaultAuthorName and DefaultAuthorEmail sign commits whose caller
	// gave no author.
	DefaultAuthorName  = "Folio"
	DefaultAuthorEmail = "folio@folio.local"

	// MessageConflict and MessageSaved are the user-facing edit outcomes.
	MessageConflict = "A conflict happened."
	MessageSaved    = "The document was saved."
)

// Manager applies document policy on top of a repository.
type Manager struct {
	repo     *repo.Repository
	registry *Registry
	logger   *zap.Logger

	authorName  string
	authorEmail string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDefaultAuthor sets the author used when a call names none.
func WithDefaultAuthor(name, email string) Option {
	return func(m *Manager) {
		m.authorName = name
		m.authorEmail = email
	}
}

// NewManager returns a Manager for the types in registry.
func NewManager(r *repo.Repository, registry *Registry, opts ...Option) *Manager {
	m := &Manager{
		repo:        r,
		registry:    registry,
		logger:      zap.NewNop(),
		authorName:  DefaultAuthorName,
		authorEmail: DefaultAuthorEmail,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Repository returns the repository documents live in.
func (m *Manager) Repository() *repo.Repository { return m.repo }

// Registry returns the registry of document types.
func (m *Manager) Registry() *Registry { return m.registry }

// Author is who a commit is attributed to. Empty fields fall back to the
// manager's default author.
type Author struct {
	Name  string
	Email string
}

func (m *Manager) author(a Author) (string, string) {
	name, email := a.Name, a.Email
	if name == "" {
		name = m.authorName
	}
	if email == "" {
		email = m.authorEmail
	}
	return name, email
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

// CreateOptions configures Create.
type CreateOptions struct {
	Author  Author
	Message string
	// ModelPath overrides the type's model directory.
	ModelPath string
}

// CreateResult reports the outcome of Create.
type CreateResult struct {
	// Created is false when the document id was already used; Commit is
	// then the existing head.
	Created bool
	Branch  string
	Commit  object.Hash
}

// Create seeds a new document branch from the type's model directory.
// An id that is already used is not an error: Created is false and
// nothing is written.
func (m *Manager) Create(typeName, id string, opts CreateOptions) (*CreateResult, error) {
	t, err := m.registry.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	branch, err := BranchName(t.Name, id)
	if err != nil {
		return nil, err
	}
	model := opts.ModelPath
	if model == "" {
		model = t.ModelPath
	}
	if model == "" {
		return nil, fmt.Errorf("create %s: %w: no model directory", branch, repo.ErrInvalidArgument)
	}

	g, err := m.repo.Branch(branch)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", branch, err)
	}
	if g.Head() != "" {
		m.logger.Info("document id already used",
			zap.String("type", t.Name), zap.String("id", id), zap.String("commit", string(g.Head())))
		return &CreateResult{Created: false, Branch: branch, Commit: g.Head()}, nil
	}

	if err := g.StoreDirectory(model); err != nil {
		return nil, fmt.Errorf("create %s: %w", branch, err)
	}
	name, email := m.author(opts.Author)
	h, err := g.Commit(name, email, messageOr(opts.Message, fmt.Sprintf("Create %s %s", t.Name, id)))
	if err != nil {
		// Someone else created the branch between our read and write.
		var conflict *repo.ConflictError
		if errors.As(err, &conflict) && conflict.Expected == "" {
			tip, _, _ := m.repo.ResolveBranch(branch)
			m.logger.Info("document id already used",
				zap.String("type", t.Name), zap.String("id", id), zap.String("commit", string(tip)))
			return &CreateResult{Created: false, Branch: branch, Commit: tip}, nil
		}
		return nil, fmt.Errorf("create %s: %w", branch, err)
	}

	m.logger.Info("document created",
		zap.String("type", t.Name), zap.String("id", id), zap.String("commit", string(h)))
	return &CreateResult{Created: true, Branch: branch, Commit: h}, nil
}

// EditOptions configures Edit.
type EditOptions struct {
	// Path is the resource to replace; the type's index by default.
	Path    string
	Author  Author
	Message string
}

// EditResult reports the outcome of Edit.
type EditResult struct {
	Saved    bool
	Conflict bool
	// Message is a user-facing summary of the outcome.
	Message string
	// Commit is the new head when Saved.
	Commit object.Hash
}

// Edit replaces one resource of a document. version is the commit the
// editor started from ("" for the current tip). When the branch moved
// since version the edit is dropped and reported as a conflict rather
// than as an error.
func (m *Manager) Edit(typeName, id string, version object.Hash, content []byte, opts EditOptions) (*EditResult, error) {
	doc, err := m.Open(typeName, id, version)
	if err != nil {
		return nil, err
	}
	if !doc.Exists() {
		return nil, fmt.Errorf("edit %s: %w", doc.Branch, repo.ErrNotFound)
	}
	p := opts.Path
	if p == "" {
		p = doc.Type.IndexPath()
	}

	h, err := doc.WriteResource(p, content, opts.Author, messageOr(opts.Message, fmt.Sprintf("Edit %s", p)))
	if repo.IsConflict(err) {
		m.logger.Warn("document edit conflict",
			zap.String("type", doc.Type.Name), zap.String("id", id), zap.String("version", string(version)))
		return &EditResult{Conflict: true, Message: MessageConflict}, nil
	}
	if err != nil {
		return nil, err
	}
	m.logger.Info("document saved",
		zap.String("type", doc.Type.Name), zap.String("id", id), zap.String("path", p), zap.String("commit", string(h)))
	return &EditResult{Saved: true, Message: MessageSaved, Commit: h}, nil
}

// ArchiveOptions configures Archive.
type ArchiveOptions struct {
	// Version is the live commit to archive; the current tip by default.
	Version object.Hash
	Author  Author
	Message string
}

// Archive records the live tree of a document as a new commit on its
// archive branch, parented on the archive's previous tip. The archive
// branch is updated with compare-and-swap, so two concurrent archives of
// the same document cannot both land; the loser gets a *repo.ConflictError.
func (m *Manager) Archive(typeName, id string, opts ArchiveOptions) (object.Hash, error) {
	live, err := m.Open(typeName, id, opts.Version)
	if err != nil {
		return "", err
	}
	if !live.Exists() {
		return "", fmt.Errorf("archive %s: %w", live.Branch, repo.ErrNotFound)
	}
	archiveBranch, err := ArchiveBranchName(live.Type.Name, id)
	if err != nil {
		return "", err
	}

	g, err := m.repo.Branch(archiveBranch)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", archiveBranch, err)
	}
	if err := g.SetTree(live.git.TreeHash()); err != nil {
		return "", fmt.Errorf("archive %s: %w", archiveBranch, err)
	}
	name, email := m.author(opts.Author)
	msg := messageOr(opts.Message, fmt.Sprintf("Archive %s at %s", live.Branch, live.Version().Short()))
	h, err := g.Commit(name, email, msg)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", archiveBranch, err)
	}

	m.logger.Info("document archived",
		zap.String("type", live.Type.Name), zap.String("id", id),
		zap.String("version", string(live.Version())), zap.String("commit", string(h)))
	return h, nil
}

// Open returns the live document pinned at version, or at its current
// tip when version is "". A document that does not exist yet opens
// empty; see Document.Exists.
func (m *Manager) Open(typeName, id string, version object.Hash) (*Document, error) {
	return m.open(typeName, id, version, false)
}

// OpenArchive returns the archive of a document pinned at version, or at
// its latest snapshot when version is "".
func (m *Manager) OpenArchive(typeName, id string, version object.Hash) (*Document, error) {
	return m.open(typeName, id, version, true)
}

func (m *Manager) open(typeName, id string, version object.Hash, archived bool) (*Document, error) {
	t, err := m.registry.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	name := BranchName
	if archived {
		name = ArchiveBranchName
	}
	branch, err := name(t.Name, id)
	if err != nil {
		return nil, err
	}
	g, err := m.repo.At(branch, version)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", branch, err)
	}
	return &Document{Type: t, ID: id, Branch: branch, Archived: archived, git: g, manager: m}, nil
}

// List returns the ids of the live documents of a type, ordered by
// branch name.
func (m *Manager) List(typeName string) ([]string, error) {
	t, err := m.registry.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	branches, err := m.repo.ListBranches(documentsRoot + "/" + t.Name + "/")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(branches))
	for _, b := range branches {
		escaped := strings.TrimPrefix(b.Name, documentsRoot+"/"+t.Name+"/")
		id, err := UnescapeID(escaped)
		if err != nil {
			m.logger.Warn("skipping branch with malformed id", zap.String("branch", b.Name))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
