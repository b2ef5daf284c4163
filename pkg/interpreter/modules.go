package interpreter

import (
	"nikl/interpreter-go/pkg/runtime"
)

// module builds the namespace bound by `import name`.
func (i *Interpreter) module(name string) (*runtime.HashMapValue, bool) {
	var fns []*runtime.NativeFunctionValue
	switch name {
	case "os":
		fns = i.osModule()
	case "regex":
		fns = i.regexModule()
	case "net":
		fns = i.netModule()
	default:
		return nil, false
	}
	ns := runtime.NewHashMap()
	for _, fn := range fns {
		// String keys are always hashable.
		_ = ns.Set(runtime.StringValue{Val: fn.Name}, fn)
	}
	return ns, true
}

func hostError(fn string, err error) error {
	return runtime.WrapRuntime(err, "%s: %s", fn, err.Error())
}

func stringArray(items []string) *runtime.ArrayValue {
	vals := make([]runtime.Value, len(items))
	for idx, item := range items {
		vals[idx] = runtime.StringValue{Val: item}
	}
	return runtime.NewArray(vals)
}

func matchArray(groups []MatchGroup) *runtime.ArrayValue {
	vals := make([]runtime.Value, len(groups))
	for idx, g := range groups {
		if g.Matched {
			vals[idx] = runtime.StringValue{Val: g.Text}
		} else {
			vals[idx] = runtime.None
		}
	}
	return runtime.NewArray(vals)
}

// pathAction builds a one-path native that returns None on success.
func pathAction(name string, action func(string) error) *runtime.NativeFunctionValue {
	return native(name, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		path, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		if err := action(path); err != nil {
			return nil, hostError("os."+name, err)
		}
		return runtime.None, nil
	})
}

func pathCheck(name string, check func(string) bool) *runtime.NativeFunctionValue {
	return native(name, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		path, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: check(path)}, nil
	})
}

func (i *Interpreter) osModule() []*runtime.NativeFunctionValue {
	return []*runtime.NativeFunctionValue{
		native("read_file", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg("read_file", args, 0)
			if err != nil {
				return nil, err
			}
			content, err := i.host.ReadFile(path)
			if err != nil {
				return nil, hostError("os.read_file", err)
			}
			return runtime.StringValue{Val: content}, nil
		}),
		native("write_file", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg("write_file", args, 0)
			if err != nil {
				return nil, err
			}
			content, err := stringArg("write_file", args, 1)
			if err != nil {
				return nil, err
			}
			if err := i.host.WriteFile(path, content); err != nil {
				return nil, hostError("os.write_file", err)
			}
			return runtime.None, nil
		}),
		native("list_dir", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg("list_dir", args, 0)
			if err != nil {
				return nil, err
			}
			names, err := i.host.ListDir(path)
			if err != nil {
				return nil, hostError("os.list_dir", err)
			}
			return stringArray(names), nil
		}),
		pathCheck("exists", i.host.Exists),
		pathCheck("is_file", i.host.IsFile),
		pathCheck("is_dir", i.host.IsDir),
		pathAction("make_dir", i.host.MakeDir),
		pathAction("remove_file", i.host.RemoveFile),
		pathAction("remove_dir", i.host.RemoveDir),
		pathAction("set_cwd", i.host.Setwd),
		native("rename", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			from, err := stringArg("rename", args, 0)
			if err != nil {
				return nil, err
			}
			to, err := stringArg("rename", args, 1)
			if err != nil {
				return nil, err
			}
			if err := i.host.Rename(from, to); err != nil {
				return nil, hostError("os.rename", err)
			}
			return runtime.None, nil
		}),
		native("get_cwd", 0, func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
			dir, err := i.host.Getwd()
			if err != nil {
				return nil, hostError("os.get_cwd", err)
			}
			return runtime.StringValue{Val: dir}, nil
		}),
		variadic("env_get", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			if err := maxArgs("env_get", args, 2); err != nil {
				return nil, err
			}
			key, err := stringArg("env_get", args, 0)
			if err != nil {
				return nil, err
			}
			if val, ok := i.host.Getenv(key); ok {
				return runtime.StringValue{Val: val}, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return runtime.None, nil
		}),
		native("env_set", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			key, err := stringArg("env_set", args, 0)
			if err != nil {
				return nil, err
			}
			val, err := stringArg("env_set", args, 1)
			if err != nil {
				return nil, err
			}
			if err := i.host.Setenv(key, val); err != nil {
				return nil, hostError("os.env_set", err)
			}
			return runtime.None, nil
		}),
	}
}

func (i *Interpreter) regexModule() []*runtime.NativeFunctionValue {
	return []*runtime.NativeFunctionValue{
		native("match", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			pattern, text, err := patternArgs("match", args)
			if err != nil {
				return nil, err
			}
			groups, ok, err := i.host.Match(pattern, text)
			if err != nil {
				return nil, hostError("regex.match", err)
			}
			if !ok {
				return runtime.None, nil
			}
			return matchArray(groups), nil
		}),
		native("is_match", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			pattern, text, err := patternArgs("is_match", args)
			if err != nil {
				return nil, err
			}
			_, ok, err := i.host.Match(pattern, text)
			if err != nil {
				return nil, hostError("regex.is_match", err)
			}
			return runtime.BoolValue{Val: ok}, nil
		}),
		native("find_all", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			pattern, text, err := patternArgs("find_all", args)
			if err != nil {
				return nil, err
			}
			found, err := i.host.FindAll(pattern, text)
			if err != nil {
				return nil, hostError("regex.find_all", err)
			}
			return stringArray(found), nil
		}),
		// replace(pattern, repl, text)
		native("replace", 3, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			pattern, err := stringArg("replace", args, 0)
			if err != nil {
				return nil, err
			}
			repl, err := stringArg("replace", args, 1)
			if err != nil {
				return nil, err
			}
			text, err := stringArg("replace", args, 2)
			if err != nil {
				return nil, err
			}
			out, err := i.host.Replace(pattern, text, repl)
			if err != nil {
				return nil, hostError("regex.replace", err)
			}
			return runtime.StringValue{Val: out}, nil
		}),
	}
}

func patternArgs(fn string, args []runtime.Value) (string, string, error) {
	pattern, err := stringArg(fn, args, 0)
	if err != nil {
		return "", "", err
	}
	text, err := stringArg(fn, args, 1)
	if err != nil {
		return "", "", err
	}
	return pattern, text, nil
}

func (i *Interpreter) netModule() []*runtime.NativeFunctionValue {
	return []*runtime.NativeFunctionValue{
		native("fetch", 1, func(call *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			url, err := stringArg("fetch", args, 0)
			if err != nil {
				return nil, err
			}
			res, err := i.host.Fetch(call.Ctx, url)
			if err != nil {
				return nil, hostError("net.fetch", err)
			}
			return runtime.StringValue{Val: res.Body}, nil
		}),
		native("request", 1, func(call *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			url, err := stringArg("request", args, 0)
			if err != nil {
				return nil, err
			}
			res, err := i.host.Fetch(call.Ctx, url)
			if err != nil {
				return nil, hostError("net.request", err)
			}
			out := runtime.NewHashMap()
			_ = out.Set(runtime.StringValue{Val: "status"}, runtime.IntValue{Val: int64(res.Status)})
			_ = out.Set(runtime.StringValue{Val: "body"}, runtime.StringValue{Val: res.Body})
			return out, nil
		}),
	}
}
