package dbmigrate_test

import (
	"os"
	"path/filepath"

	. "dbmigrate/pkg/dbmigrate"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("#ScanMigrations", func() {
	var dir string

	BeforeEach(func() {
		dir = tempDir()
	})

	It("returns the migrations of one direction sorted by identifier", func() {
		writeFile(dir, "20231002182613-d-up.sql", "SELECT 4;")
		writeFile(dir, "20220902182613-a-up.sql", "SELECT 1;")
		writeFile(dir, "20230902182613-c-up.sql", "SELECT 3;")
		writeFile(dir, "20230802182613-b-up.sql", "SELECT 2;")
		writeFile(dir, "20220902182613-a-down.sql", "SELECT 1;")

		migrations, err := ScanMigrations(dir, DirectionUp)
		Expect(err).NotTo(HaveOccurred())

		var ids []string
		for _, m := range migrations {
			Expect(m.Direction).To(Equal(DirectionUp))
			ids = append(ids, m.ID)
		}
		Expect(ids).To(Equal([]string{
			"20220902182613-a",
			"20230802182613-b",
			"20230902182613-c",
			"20231002182613-d",
		}))

		Expect(migrations[0].Filename).To(Equal("20220902182613-a-up.sql"))
		Expect(migrations[0].Path).To(Equal(filepath.Join(dir, "20220902182613-a-up.sql")))
		Expect(migrations[0].Name()).To(Equal("20220902182613-a-up"))
	})

	It("filters by the down suffix", func() {
		writeFile(dir, "20220902182613-a-up.sql", "SELECT 1;")
		writeFile(dir, "20220902182613-a-down.sql", "SELECT 1;")

		migrations, err := ScanMigrations(dir, DirectionDown)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations).To(HaveLen(1))
		Expect(migrations[0].Name()).To(Equal("20220902182613-a-down"))
	})

	It("ignores directories and files without the suffix", func() {
		Expect(os.Mkdir(filepath.Join(dir, "20220902182613-nested-up.sql"), 0o755)).To(Succeed())
		writeFile(dir, "README.md", "docs")
		writeFile(dir, "20220902182613-a-up.sql.bak", "SELECT 1;")
		writeFile(dir, "-up.sql", "SELECT 1;")
		writeFile(dir, "20230802182613-b-up.sql", "SELECT 2;")

		migrations, err := ScanMigrations(dir, DirectionUp)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations).To(HaveLen(1))
		Expect(migrations[0].ID).To(Equal("20230802182613-b"))
	})

	It("follows symlinks to regular files", func() {
		target := writeFile(tempDir(), "target.sql", "SELECT 1;")
		Expect(os.Symlink(target, filepath.Join(dir, "20220902182613-linked-up.sql"))).To(Succeed())

		migrations, err := ScanMigrations(dir, DirectionUp)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations).To(HaveLen(1))
		Expect(migrations[0].ID).To(Equal("20220902182613-linked"))
	})

	It("fails with ErrNoMigrationFiles when nothing matches", func() {
		writeFile(dir, "20220902182613-a-down.sql", "SELECT 1;")

		_, err := ScanMigrations(dir, DirectionUp)
		Expect(err).To(MatchError(ErrNoMigrationFiles))
	})

	It("fails with ErrFolderNotFound when the directory is missing", func() {
		_, err := ScanMigrations(filepath.Join(dir, "missing"), DirectionUp)
		Expect(err).To(MatchError(ErrFolderNotFound))
	})
})
