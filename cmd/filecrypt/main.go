package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"filecrypt/internal/config"
	"filecrypt/internal/core/domain"
	"filecrypt/internal/encryption/service"
	"filecrypt/internal/fileinfo"
	"filecrypt/internal/logging"
	"filecrypt/internal/password"
	"filecrypt/internal/remote"
	"filecrypt/internal/storage/local"
)

var errQuit = errors.New("quit")

type app struct {
	svc    service.Service
	p      *prompter
	out    io.Writer
	logger logrus.FieldLogger

	// openVault connects to remote storage on first use.
	openVault func(ctx context.Context) (*remote.Vault, error)
	vault     *remote.Vault
}

type menuItem struct {
	label  string
	action func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	fsys, err := local.New(
		local.WithMaxFileSize(int64(cfg.Files.MaxFileSize)),
		local.WithChunkSize(int(cfg.Files.ChunkSize)),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create file system")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewService(fsys, service.WithLogger(logger))
	a := &app{
		svc:    svc,
		p:      newPrompter(os.Stdin, os.Stdout),
		out:    os.Stdout,
		logger: logger,
		openVault: func(ctx context.Context) (*remote.Vault, error) {
			return openVault(ctx, cfg, svc, fsys, logger)
		},
	}

	fmt.Fprintln(a.out, "filecrypt - password-based file encryption (AES-256-CBC, PBKDF2-SHA256)")
	if err := a.run(ctx); err != nil && !errors.Is(err, errQuit) {
		logger.WithError(err).Error("Exiting")
		os.Exit(1)
	}
}

func (a *app) menu() []menuItem {
	return []menuItem{
		{"Encrypt file", a.encryptFile},
		{"Decrypt file", a.decryptFile},
		{"Encrypt folder", a.encryptFolder},
		{"Decrypt folder", a.decryptFolder},
		{"Password tools", a.passwordTools},
		{"File information", a.fileInfo},
		{"Back up file to S3", a.backup},
		{"Restore file from S3", a.restore},
		{"List S3 backups", a.listBackups},
		{"Exit", func(context.Context) error { return errQuit }},
	}
}

// run shows the menu until the user exits, input ends or ctx is cancelled.
// Errors from a single action are reported and the loop continues.
func (a *app) run(ctx context.Context) error {
	items := a.menu()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(a.out, "\nSelect operation:")
		for i, item := range items {
			fmt.Fprintf(a.out, "%d. %s\n", i+1, item.label)
		}

		choice, err := a.p.number("\nChoice: ", 1, len(items))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}

		err = items[choice-1].action(ctx)
		switch {
		case errors.Is(err, errQuit):
			return err
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			fmt.Fprintf(a.out, "Error: %v\n", err)
			if hint := hintFor(err); hint != "" {
				fmt.Fprintf(a.out, "Hint: %s\n", hint)
			}
		}
	}
}

// hintFor suggests a next step for failures the user can act on.
func hintFor(err error) string {
	switch service.KindOf(err) {
	case service.KindNotFound:
		return "check the path; it must name an existing file or folder"
	case service.KindOutputExists:
		return "an encrypted copy already exists; move or delete it first"
	case service.KindTooLarge:
		return "raise FILECRYPT_MAX_FILE_SIZE to process larger files"
	case service.KindContainerTooShort, service.KindInvalidLength:
		return "this file was not produced by filecrypt or has been truncated"
	}
	return ""
}

func (a *app) encryptFile(ctx context.Context) error {
	path, err := a.p.line("File to encrypt: ")
	if err != nil {
		return err
	}
	pw, err := a.p.newPassword()
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := a.svc.EncryptFile(ctx, path, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Encrypted to %s in %v\n", out, time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(a.out, "Keep the password safe: it cannot be recovered.")
	return nil
}

func (a *app) decryptFile(ctx context.Context) error {
	path, err := a.p.line("File to decrypt: ")
	if err != nil {
		return err
	}
	pw, err := a.p.existingPassword()
	if err != nil {
		return err
	}

	out, err := a.svc.DecryptFile(ctx, path, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Decrypted to %s\n", out)
	fmt.Fprintln(a.out, "Note: a wrong password is not detected and produces unreadable output.")
	return nil
}

func (a *app) encryptFolder(ctx context.Context) error {
	dir, err := a.p.line("Folder to encrypt: ")
	if err != nil {
		return err
	}
	pw, err := a.p.newPassword()
	if err != nil {
		return err
	}
	res, err := a.svc.EncryptFolder(ctx, dir, pw)
	a.printBatch("Encrypted", res)
	return err
}

func (a *app) decryptFolder(ctx context.Context) error {
	dir, err := a.p.line("Folder to decrypt: ")
	if err != nil {
		return err
	}
	pw, err := a.p.existingPassword()
	if err != nil {
		return err
	}
	res, err := a.svc.DecryptFolder(ctx, dir, pw)
	a.printBatch("Decrypted", res)
	return err
}

func (a *app) printBatch(verb string, res *domain.BatchResult) {
	if res == nil {
		return
	}
	fmt.Fprintf(a.out, "%s %d/%d files in %v\n", verb, res.Succeeded, res.Total, res.Duration.Round(time.Millisecond))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(a.out, "Skipped %d file(s)\n", len(res.Skipped))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(a.out, "  failed: %s: %v\n", f.Path, f.Err)
	}
}

func (a *app) passwordTools(ctx context.Context) error {
	fmt.Fprintln(a.out, "1. Check password strength")
	fmt.Fprintln(a.out, "2. Generate password")
	choice, err := a.p.number("Choice: ", 1, 2)
	if err != nil {
		return err
	}

	if choice == 1 {
		pw, err := a.p.secret("Password to check: ")
		if err != nil {
			return err
		}
		analysis := password.Analyze(pw)
		for _, c := range analysis.Criteria {
			mark := "no"
			if c.Passed {
				mark = "yes"
			}
			fmt.Fprintf(a.out, "  %-16s %s\n", c.Name, mark)
		}
		fmt.Fprintf(a.out, "Score: %d/80 (%s)\n", analysis.Score, analysis.Rating)
		fmt.Fprintf(a.out, "SHA-256: %s\n", password.Hash(pw))
		return nil
	}

	s, err := a.p.lineDefault("Length", fmt.Sprint(password.DefaultLength))
	if err != nil {
		return err
	}
	var length int
	if _, err := fmt.Sscan(s, &length); err != nil {
		return fmt.Errorf("invalid length %q", s)
	}
	symbols, err := a.p.confirm("Include symbols?")
	if err != nil {
		return err
	}
	numbers, err := a.p.confirm("Include numbers?")
	if err != nil {
		return err
	}

	pw, err := password.Generate(length, symbols, numbers)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Generated password: %s\n", pw)
	return nil
}

func (a *app) fileInfo(ctx context.Context) error {
	path, err := a.p.line("File or folder: ")
	if err != nil {
		return err
	}

	if st, err := os.Stat(path); err == nil && st.IsDir() {
		files, err := fileinfo.ListFiles(path)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(a.out, "  %s (%s)\n", f, fileinfo.TypeOf(f))
		}
		fmt.Fprintf(a.out, "%d file(s), %s total\n", len(files), fileinfo.TotalSize(files))
		return nil
	}

	info, err := fileinfo.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Name:        %s\n", info.Name)
	fmt.Fprintf(a.out, "Path:        %s\n", info.Path)
	fmt.Fprintf(a.out, "Size:        %s\n", info.HumanSize())
	fmt.Fprintf(a.out, "Type:        %s\n", info.Type)
	fmt.Fprintf(a.out, "Modified:    %s (%s)\n", info.ModifiedString(), info.Age())
	fmt.Fprintf(a.out, "Permissions: %s\n", info.Permissions())
	fmt.Fprintf(a.out, "Readable:    %t\n", info.Readable)
	fmt.Fprintf(a.out, "Writable:    %t\n", info.Writable)
	return nil
}

func (a *app) connect(ctx context.Context) (*remote.Vault, error) {
	if a.vault != nil {
		return a.vault, nil
	}
	v, err := a.openVault(ctx)
	if err != nil {
		return nil, err
	}
	a.vault = v
	return v, nil
}

func (a *app) backup(ctx context.Context) error {
	vault, err := a.connect(ctx)
	if err != nil {
		return err
	}
	path, err := a.p.line("File to back up: ")
	if err != nil {
		return err
	}
	pw, err := a.p.newPassword()
	if err != nil {
		return err
	}

	meta, err := vault.Backup(ctx, path, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backed up %s as %s (%s)\n", meta.OriginalName, meta.ID, humanize.Bytes(uint64(meta.EncryptedSize)))
	return nil
}

func (a *app) restore(ctx context.Context) error {
	vault, err := a.connect(ctx)
	if err != nil {
		return err
	}
	id, err := a.p.line("Backup ID: ")
	if err != nil {
		return err
	}
	dir, err := a.p.lineDefault("Destination folder", ".")
	if err != nil {
		return err
	}
	pw, err := a.p.existingPassword()
	if err != nil {
		return err
	}

	out, err := vault.Restore(ctx, id, dir, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored to %s\n", out)
	return nil
}

func (a *app) listBackups(ctx context.Context) error {
	vault, err := a.connect(ctx)
	if err != nil {
		return err
	}
	objects, err := vault.List(ctx)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Fprintln(a.out, "No backups found.")
		return nil
	}
	for _, o := range objects {
		fmt.Fprintf(a.out, "%s  %-30s %10s  %s\n",
			o.ID, o.OriginalName, humanize.Bytes(uint64(o.Size)), humanize.Time(o.CreatedAt))
	}
	return nil
}
