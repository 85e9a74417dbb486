package dbowcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	dbowcmder "github.com/hupe1980/dbow/cmd/dbow"
	"github.com/hupe1980/dbow/internal/cli"
)

// writeNoise writes a 64x64 gray noise image seeded by seed.
func writeNoise(path string, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed*7+1))
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(r.IntN(256))})
		}
	}
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	Expect(png.Encode(f, img)).To(Succeed())
}

// run executes the root command with args and returns its output.
func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := dbowcmder.NewDbowCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var smallVocabulary = []string{"--branching", "5", "--levels", "2", "--weighting", "tf", "--log-format", "json"}

var _ = Describe("NewDbowCmd", func() {
	It("registers every subcommand", func() {
		cmd := dbowcmder.NewDbowCmd()
		var names []string
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("demo", "train", "index", "query", "info"))
	})

	It("has the global flags", func() {
		cmd := dbowcmder.NewDbowCmd()
		Expect(cmd.PersistentFlags().Lookup("config")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("log-format")).NotTo(BeNil())
	})

	DescribeTable("rejects a wrong argument count",
		func(args ...string) {
			_, err := run(args...)
			Expect(err).To(HaveOccurred())
		},
		Entry("demo without output", "demo", "a", "b"),
		Entry("demo with extra argument", "demo", "a", "b", "c", "d"),
		Entry("train without output", "train", "a"),
		Entry("index without store", "index", "a"),
		Entry("query without image", "query", "store"),
		Entry("info without store", "info"),
	)
})

var _ = Describe("Command execution", func() {
	var (
		tmpDir     string
		origDir    string
		datasetDir string
		queryDir   string
		outDir     string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dbow-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		datasetDir = filepath.Join(tmpDir, "dataset")
		queryDir = filepath.Join(tmpDir, "queries")
		outDir = filepath.Join(tmpDir, "out")
		Expect(os.Mkdir(datasetDir, 0o755)).To(Succeed())
		Expect(os.Mkdir(queryDir, 0o755)).To(Succeed())

		for i := range 4 {
			writeNoise(filepath.Join(datasetDir, fmt.Sprintf("image%d.png", i)), uint64(i+1))
		}
		writeNoise(filepath.Join(queryDir, "query0.png"), 3)
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	})

	It("runs the demo and writes every artifact", func() {
		out, err := run(append([]string{"demo", datasetDir, queryDir, outDir}, smallVocabulary...)...)
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(ContainSubstring("Dataset images:"))
		Expect(out).To(ContainSubstring("Creating a 5^2 vocabulary..."))
		Expect(out).To(ContainSubstring("Image 0 vs Image 3: "))
		Expect(out).To(ContainSubstring("Database: Entries = 4"))
		best := out[strings.Index(out, "Found: "):]
		best = best[:strings.Index(best, "\n")]
		Expect(best).To(HavePrefix("Found: " + filepath.Join(datasetDir, "image2.png") + " with score"))
		Expect(out).To(ContainSubstring("Retrieving database once again..."))

		for _, blob := range []string{cli.VocabularyBlob, cli.DatabaseBlob, cli.ManifestBlob} {
			Expect(filepath.Join(outDir, blob)).To(BeAnExistingFile())
		}
	})

	It("fails the demo on an empty dataset directory", func() {
		empty := filepath.Join(tmpDir, "empty")
		Expect(os.Mkdir(empty, 0o755)).To(Succeed())

		_, err := run("demo", empty, queryDir, outDir)
		Expect(err).To(MatchError(ContainSubstring("no images")))
	})

	It("trains, indexes and queries step by step", func() {
		out, err := run(append([]string{"train", datasetDir, outDir}, smallVocabulary...)...)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Vocabulary: k = 5, L = 2"))

		out, err = run("index", datasetDir, outDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Entries = 4"))

		out, err = run("query", outDir, filepath.Join(queryDir, "query0.png"), "--top-k", "2", "--json")
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(out), "\n")
		Expect(lines).To(HaveLen(1))
		var report cli.QueryReport
		Expect(json.Unmarshal([]byte(lines[0]), &report)).To(Succeed())
		Expect(report.Matches).To(HaveLen(2))
		Expect(report.Matches[0].ID).To(Equal(uint32(2)))
		Expect(report.Matches[0].Image).To(Equal(filepath.Join(datasetDir, "image2.png")))
		Expect(report.Matches[0].Score).To(BeNumerically("~", 1, 1e-9))
		Expect(report.Matches[1].Score).To(BeNumerically("<", 1))

		out, err = run("info", outDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(cli.VocabularyBlob + ": Vocabulary"))
		Expect(out).To(ContainSubstring(cli.ManifestBlob + ": 4 images"))
	})

	It("appends to an existing database", func() {
		_, err := run(append([]string{"train", datasetDir, outDir}, smallVocabulary...)...)
		Expect(err).NotTo(HaveOccurred())
		_, err = run("index", datasetDir, outDir)
		Expect(err).NotTo(HaveOccurred())

		out, err := run("index", queryDir, outDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Entries = 5"))

		manifest, err := os.ReadFile(filepath.Join(outDir, cli.ManifestBlob))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(manifest)).To(ContainSubstring("query0.png"))
	})

	It("requires a vocabulary before indexing", func() {
		_, err := run("index", datasetDir, outDir)
		Expect(err).To(MatchError(ContainSubstring("loading vocabulary")))
	})

	It("reports a store without artifacts", func() {
		_, err := run("info", filepath.Join(tmpDir, "nothing"))
		Expect(err).To(MatchError(ContainSubstring("no dbow artifacts")))
	})

	It("reads settings from dbow.toml", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "dbow.toml"), []byte("[vocabulary]\nk = 4\nlevels = 2\nweighting = \"tf\"\n"), 0o600)).To(Succeed())

		out, err := run("train", datasetDir, outDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Vocabulary: k = 4, L = 2"))
	})
})
