package commands

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/zerr"
)

// groupSeparator joins the tokens of a bracket group into one argument.
const groupSeparator = "\x00"

// collapseSubArguments folds every bracket group ("[url -b next -c cmd]") into
// a single argument so the group reaches the --repository flag as one value.
// Arguments after "--" are passed through untouched.
func collapseSubArguments(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	var group []string
	level := 0

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if level == 0 {
			if arg == "--" {
				return append(out, args[i:]...), nil
			}
			for _, prefix := range []string{"--repository=", "-r="} {
				if value, ok := strings.CutPrefix(arg, prefix); ok && strings.HasPrefix(value, "[") {
					out = append(out, strings.TrimSuffix(prefix, "="))
					arg = value
				}
			}
		}

		if strings.HasPrefix(arg, "[") {
			level++
		}
		if level == 0 {
			out = append(out, arg)
			continue
		}

		group = append(group, arg)
		if strings.HasSuffix(arg, "]") {
			level--
			if level == 0 {
				out = append(out, encodeGroup(group))
				group = nil
			}
		}
	}

	if level > 0 {
		return nil, zerr.With(
			zerr.With(domain.ErrInvalidRepositoryArgument, "reason", "unterminated bracket group"),
			"argument", strings.Join(group, " "),
		)
	}
	return out, nil
}

func encodeGroup(group []string) string {
	tokens := make([]string, 0, len(group))
	for i, tok := range group {
		if i == 0 {
			tok = strings.TrimPrefix(tok, "[")
		}
		if i == len(group)-1 {
			tok = strings.TrimSuffix(tok, "]")
		}
		if tok == "" && (i == 0 || i == len(group)-1) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return "[" + strings.Join(tokens, groupSeparator) + "]"
}

// parseRepositoryFlags turns the values of the --repository flag into
// repository inputs, in order.
func parseRepositoryFlags(values []string) ([]domain.RepositoryInput, error) {
	var inputs []domain.RepositoryInput
	for _, value := range values {
		inner, ok := strings.CutPrefix(value, "[")
		if !ok {
			inputs = append(inputs, domain.RepositoryInput{URL: value})
			continue
		}

		var tokens []string
		if inner = strings.TrimSuffix(inner, "]"); inner != "" {
			tokens = strings.Split(inner, groupSeparator)
		}
		in, err := parseGroup(tokens)
		if err != nil {
			return nil, zerr.With(err, "argument", "["+strings.Join(tokens, " ")+"]")
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// parseGroup parses the tokens of one bracket group. A "-c" without a value
// declares that the repository runs no command.
func parseGroup(tokens []string) (domain.RepositoryInput, error) {
	fs := pflag.NewFlagSet("repository", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	branch := fs.StringP("branch", "b", "", "branch to check out")
	commands := fs.StringArrayP("command", "c", nil, "command to run in the repository")
	directory := fs.StringP("directory", "d", "", "directory to clone into")

	normalized := make([]string, len(tokens))
	for i, tok := range tokens {
		normalized[i] = tok
		if tok != "-c" && tok != "--command" {
			continue
		}
		if i == len(tokens)-1 || (strings.HasPrefix(tokens[i+1], "-") && tokens[i+1] != "-") {
			normalized[i] = "--command="
		}
	}

	if err := fs.Parse(normalized); err != nil {
		return domain.RepositoryInput{}, zerr.Wrap(err, domain.ErrInvalidRepositoryArgument.Error())
	}

	switch fs.NArg() {
	case 0:
		return domain.RepositoryInput{}, zerr.With(domain.ErrInvalidRepositoryArgument, "reason", "missing repository url")
	case 1:
	default:
		return domain.RepositoryInput{}, zerr.With(domain.ErrInvalidRepositoryArgument, "reason", "more than one repository url")
	}

	in := domain.RepositoryInput{
		URL:       fs.Arg(0),
		Directory: *directory,
	}
	if fs.Changed("branch") {
		in.Branch = branch
	}
	if fs.Changed("command") {
		in.Commands = *commands
	}
	return in, nil
}
