package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 1 << 16
)

var inlineSeeds = []string{
	"",
	"class Set\n  # Returns the number of elements.\n  def size\n  end\nend\n",
	"class Set\n  # Related: #a, #b, #c, #d.\n  def length\n  end\n  alias count length\nend\n",
	"/*\n *  call-seq:\n *    ary.size -> integer\n *\n *  Returns the size.\n */\nstatic VALUE\nrb_ary_size(VALUE ary)\n{\n}\n",
	"/* unterminated\n static VALUE f(VALUE x) {}\n",
	"# :nodoc:\ndef hidden; end\n",
	"=begin\nblock\n=end\ndef x; end\n",
}

var callseqSeeds = []string{
	"array.count -> integer",
	"array.count {|element| ... } -> integer",
	"obj.respond_to?(symbol, include_all=false) -> true or false",
	"Array.new(size=0, default=nil) -> new_array",
	"array[index] = object -> object",
	"array <=> other_array -> integer or nil",
	"Integer(object, base=0, exception: true) -> integer or nil",
	"File.join(*strings) -> string",
	"hash.to_a -> [key, value]",
	"obj.public_send(name, ...) -> object",
	"loop { ... } -> object",
	"str.split(pattern=$;, limit=0) -> array",
	"array.clear",
	"obj.m(a=) -> nil",
	"array.count(obj integer",
}

// addSourceSeeds adds every .c and .rb file under testdata plus the inline
// snippets, each with the extension it should be classified by.
func addSourceSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".c" && ext != ".rb" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src), ext == ".c")
		return nil
	})
	for _, s := range inlineSeeds {
		f.Add([]byte(s), false)
		f.Add([]byte(s), true)
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes.
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
