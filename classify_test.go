package remotefs

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	base := errorContext{host: "h", port: 21, user: "bob", path: "/p", newPath: "/q", command: "SITE X", local: "l", remote: "r"}

	tests := []struct {
		op    Op
		check func(error) bool
	}{
		{OpConnect, func(err error) bool {
			var e *ConnectionError
			return errors.As(err, &e) && e.Kind == ConnOpen && e.Port == 21
		}},
		{OpClose, func(err error) bool {
			var e *ConnectionError
			return errors.As(err, &e) && e.Kind == ConnClose
		}},
		{OpPassive, func(err error) bool {
			var e *ConnectionError
			return errors.As(err, &e) && e.Kind == ConnPassiveOff
		}},
		{OpLogin, func(err error) bool {
			var e *AuthenticationError
			return errors.As(err, &e) && e.User == "bob"
		}},
		{OpList, func(err error) bool {
			var e *ListingError
			return errors.As(err, &e) && e.Kind == ListDir && e.Path == "/p"
		}},
		{OpNameList, func(err error) bool {
			var e *ListingError
			return errors.As(err, &e) && e.Kind == ListDir
		}},
		{OpCurrentFolder, func(err error) bool {
			var e *ListingError
			return errors.As(err, &e) && e.Kind == CurrentDir
		}},
		{OpCreateFolder, fsKind(CreateFolder)},
		{OpRemoveFolder, fsKind(RemoveFolder)},
		{OpChangeFolder, fsKind(ChangeFolder)},
		{OpDeleteFile, fsKind(DeleteFile)},
		{OpRename, func(err error) bool {
			var e *FileSystemError
			return errors.As(err, &e) && e.Kind == RenameFile && e.NewPath == "/q"
		}},
		{OpChmod, fsKind(ChangeMode)},
		{OpSize, fsKind(SizeQuery)},
		{OpModTime, fsKind(ModTimeQuery)},
		{OpGet, func(err error) bool {
			var e *TransferError
			return errors.As(err, &e) && e.Direction == Download && e.Local == "l" && e.Remote == "r"
		}},
		{OpPut, func(err error) bool {
			var e *TransferError
			return errors.As(err, &e) && e.Direction == Upload
		}},
		{OpExec, cmdKind(CommandExec)},
		{OpSite, cmdKind(CommandSite)},
		{OpRaw, cmdKind(CommandRaw)},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			t.Parallel()
			ec := base
			ec.op = tt.op
			err := classify(ec, cause)
			if !tt.check(err) {
				t.Errorf("classify(%s) = %#v", tt.op, err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("classify(%s) does not unwrap to the cause", tt.op)
			}
			if !strings.Contains(err.Error(), "boom") {
				t.Errorf("message %q lacks the cause", err.Error())
			}
		})
	}
}

func TestClassifyUnknownOperation(t *testing.T) {
	t.Parallel()
	for _, op := range []Op{OpSystemType, OpRestoreFolder, OpProbeFolder, OpProbeModTime, OpCleanup, "something-else"} {
		if err := classify(errorContext{op: op}, errors.New("x")); err != nil {
			t.Errorf("classify(%s) = %v, want nil", op, err)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{&ConfigurationError{Reason: ReasonNoHost}, "remotefs: invalid connection string: no host found"},
		{&ConfigurationError{Reason: ReasonBadValue, Key: "timeout"}, `remotefs: invalid option "timeout": invalid value`},
		{&ConnectionError{Kind: ConnOpen, Host: "::1", Port: 21}, "remotefs: could not connect to [::1]:21"},
		{&FileSystemError{Kind: ChangeMode, Host: "h", Path: "/f", Mode: 0o640}, `remotefs: could not change mode of "/f" to 0640 on h`},
		{&FileSystemError{Kind: RenameFile, Host: "h", Path: "a", NewPath: "b"}, `remotefs: could not rename "a" to "b" on h`},
		{&CommandExecutionError{Kind: CommandSite, Host: "h", Command: "SITE X"}, `remotefs: site command "SITE X" failed on h`},
		{&TransferError{Direction: Upload, Host: "h", Local: "l", Remote: "r"}, `remotefs: could not upload "l" to "r" on h (binary)`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func fsKind(kind FileSystemErrorKind) func(error) bool {
	return func(err error) bool {
		var e *FileSystemError
		return errors.As(err, &e) && e.Kind == kind && e.Path == "/p" && e.Host == "h"
	}
}

func cmdKind(kind CommandKind) func(error) bool {
	return func(err error) bool {
		var e *CommandExecutionError
		return errors.As(err, &e) && e.Kind == kind && e.Command == "SITE X"
	}
}
