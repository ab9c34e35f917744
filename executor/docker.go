package executor

import (
	"context"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	docker "github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"io"
	"io/ioutil"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	composeProjectLabel   = "com.docker.compose.project"
	composeServiceLabel   = "com.docker.compose.service"
	composeContainerLabel = "com.docker.compose.container-number"

	shortIDLength = 12
)

type dockerSession struct {
	client   *docker.Client
	response types.HijackedResponse
	execID   string
	request  Request

	stdout *drainReader
	stderr *drainReader
	pipes  []*io.PipeReader
}

func newSession(execID string, response types.HijackedResponse, client *docker.Client, request Request) *dockerSession {
	s := &dockerSession{client: client, response: response, execID: execID, request: request}

	if request.TTY {
		s.stdout = newDrainReader(response.Reader)
		return s
	}

	stdoutReader, stdoutWriter := io.Pipe()
	s.stdout = newDrainReader(stdoutReader)
	s.pipes = append(s.pipes, stdoutReader)

	var stderrWriter io.Writer = ioutil.Discard
	var stderrPipe *io.PipeWriter

	if request.Stderr {
		var stderrReader *io.PipeReader
		stderrReader, stderrPipe = io.Pipe()
		s.stderr = newDrainReader(stderrReader)
		s.pipes = append(s.pipes, stderrReader)
		stderrWriter = stderrPipe
	}

	go func() {
		_, err := stdcopy.StdCopy(stdoutWriter, stderrWriter, response.Reader)

		stdoutWriter.CloseWithError(err)

		if stderrPipe != nil {
			stderrPipe.CloseWithError(err)
		}
	}()

	return s
}

func (s *dockerSession) Stdin() io.Writer {
	if !s.request.Stdin {
		return nil
	}

	return s.response.Conn
}

func (s *dockerSession) Stdout() io.Reader {
	return s.stdout
}

func (s *dockerSession) Stderr() io.Reader {
	if s.stderr == nil {
		return nil
	}

	return s.stderr
}

func (s *dockerSession) Resizer() Resizer {
	if !s.request.TTY {
		return nil
	}

	return s
}

func (s *dockerSession) Resize(ctx context.Context, size TerminalSize) error {
	err := s.client.ContainerExecResize(ctx, s.execID, types.ResizeOptions{
		Height: uint(size.Height),
		Width:  uint(size.Width),
	})

	if err != nil {
		return errors.Wrap(err, "error resizing remote terminal")
	}
	return nil
}

func (s *dockerSession) CloseWrite() error {
	err := s.response.CloseWrite()

	if err != nil {
		return errors.Wrap(err, "error closing session IO")
	}
	return nil
}

func (s *dockerSession) End(ctx context.Context) (int, error) {
	err := waitDrained(ctx, s.stdout, s.stderr)

	if err != nil {
		return -1, err
	}

	result, err := s.client.ContainerExecInspect(ctx, s.execID)

	if err != nil {
		return -1, errors.Wrap(err, "error inspecting command execution")
	}

	return result.ExitCode, nil
}

func (s *dockerSession) Close() error {
	for _, pipe := range s.pipes {
		_ = pipe.Close()
	}

	s.response.Close()
	return nil
}

// DockerExecutor opens sessions in containers of a Docker daemon. A target
// is a Compose service or a plain container, the namespace a Compose
// project.
type DockerExecutor struct {
	client *docker.Client
	logger *zap.Logger
}

func NewDockerExecutor(ctx context.Context, host string, logger *zap.Logger) (*DockerExecutor, error) {
	options := []docker.Opt{docker.FromEnv, docker.WithAPIVersionNegotiation()}

	if host != "" {
		options = append(options, docker.WithHost(host))
	}

	client, err := docker.NewClientWithOpts(options...)

	if err != nil {
		return nil, errors.Wrap(err, "cannot create docker client")
	}

	logger.Debug("connecting to docker daemon", zap.String("host", client.DaemonHost()))

	version, err := client.ServerVersion(ctx)

	if err != nil {
		_ = client.Close()

		if docker.IsErrConnectionFailed(err) {
			return nil, errors.Wrap(err, "cannot connect to docker daemon")
		}
		return nil, errors.Wrap(classifyDockerError(err), "cannot query docker daemon version")
	}

	logger.Debug("connected to docker daemon",
		zap.String("version", version.Version),
		zap.String("api", version.APIVersion))

	return &DockerExecutor{client: client, logger: logger}, nil
}

func (e *DockerExecutor) Name() string {
	return "docker"
}

func (e *DockerExecutor) Session(ctx context.Context, request Request) (Session, error) {
	target, err := e.resolve(ctx, request)

	if err != nil {
		return nil, err
	}

	e.logger.Debug("resolved target",
		zap.String("target", request.Target),
		zap.String("container", containerName(target)),
		zap.String("id", shortID(target.ID)))

	execConfig := types.ExecConfig{
		Tty:          request.TTY,
		AttachStdin:  request.Stdin,
		AttachStderr: request.Stderr,
		AttachStdout: true,
		Cmd:          request.Command,
	}

	execCreated, err := e.client.ContainerExecCreate(ctx, target.ID, execConfig)

	if err != nil {
		return nil, errors.Wrap(classifyDockerError(err), "cannot execute command inside container")
	}

	execResponse, err := e.client.ContainerExecAttach(ctx, execCreated.ID, types.ExecStartCheck{Tty: request.TTY})

	if err != nil {
		return nil, errors.Wrap(classifyDockerError(err), "cannot attach to command")
	}

	return newSession(execCreated.ID, execResponse, e.client, request), nil
}

func (e *DockerExecutor) Targets(ctx context.Context, namespace string) ([]Target, error) {
	containers, err := e.list(ctx, namespace)

	if err != nil {
		return nil, err
	}

	return groupTargets(containers), nil
}

func (e *DockerExecutor) Close(_ context.Context) error {
	err := e.client.Close()

	if err != nil {
		return errors.Wrap(err, "error closing docker client")
	}

	return nil
}

func (e *DockerExecutor) resolve(ctx context.Context, request Request) (types.Container, error) {
	lookups := []filters.KeyValuePair{
		filters.Arg("label", composeServiceLabel+"="+request.Target),
		filters.Arg("name", "^/?"+regexp.QuoteMeta(request.Target)+"$"),
	}

	if len(request.Target) >= shortIDLength {
		lookups = append(lookups, filters.Arg("id", request.Target))
	}

	for _, lookup := range lookups {
		containers, err := e.list(ctx, request.Namespace, lookup)

		if err != nil {
			return types.Container{}, err
		}

		if len(containers) > 0 {
			return selectContainer(containers, request)
		}
	}

	return selectContainer(nil, request)
}

func (e *DockerExecutor) list(ctx context.Context, namespace string, args ...filters.KeyValuePair) ([]types.Container, error) {
	filter := filters.NewArgs(args...)

	if namespace != "" {
		filter.Add("label", composeProjectLabel+"="+namespace)
	}

	containers, err := e.client.ContainerList(ctx, types.ContainerListOptions{Filters: filter})

	if err != nil {
		return nil, errors.Wrap(classifyDockerError(err), "cannot list containers")
	}

	return containers, nil
}

func classifyDockerError(err error) error {
	switch {
	case errdefs.IsNotFound(err):
		return classify(ErrTargetNotFound, err)
	case errdefs.IsInvalidParameter(err), errdefs.IsConflict(err):
		return classify(ErrMalformedRequest, err)
	case errdefs.IsUnauthorized(err), errdefs.IsForbidden(err):
		return classify(ErrUnauthorized, err)
	}

	return err
}

// selectContainer picks the requested container of a workload, or its
// first replica when none was requested.
func selectContainer(containers []types.Container, request Request) (types.Container, error) {
	if len(containers) == 0 {
		return types.Container{}, errors.Wrapf(ErrTargetNotFound, "no running container for '%s'", request.Target)
	}

	sortContainers(containers)

	if request.Container == "" {
		return containers[0], nil
	}

	for _, container := range containers {
		if matchesContainer(container, request.Container) {
			return container, nil
		}
	}

	return types.Container{}, errors.Wrapf(ErrMalformedRequest, "container '%s' is not part of '%s'", request.Container, request.Target)
}

func matchesContainer(container types.Container, name string) bool {
	if container.Labels[composeContainerLabel] == name {
		return true
	}

	if len(name) >= shortIDLength && strings.HasPrefix(container.ID, name) {
		return true
	}

	for _, containerName := range container.Names {
		if strings.TrimPrefix(containerName, "/") == name {
			return true
		}
	}

	return false
}

func groupTargets(containers []types.Container) []Target {
	sortContainers(containers)

	index := map[string]int{}
	var targets []Target

	for _, container := range containers {
		name := container.Labels[composeServiceLabel]

		if name == "" {
			name = containerName(container)
		}

		position, found := index[name]

		if !found {
			position = len(targets)
			index[name] = position
			targets = append(targets, Target{Name: name})
		}

		targets[position].Containers = append(targets[position].Containers, containerName(container))
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Name < targets[j].Name
	})

	return targets
}

func sortContainers(containers []types.Container) {
	sort.SliceStable(containers, func(i, j int) bool {
		left, right := replica(containers[i]), replica(containers[j])

		if left != right {
			return left < right
		}

		return containerName(containers[i]) < containerName(containers[j])
	})
}

func replica(container types.Container) int {
	number, err := strconv.Atoi(container.Labels[composeContainerLabel])

	if err != nil {
		return 0
	}

	return number
}

func containerName(container types.Container) string {
	if len(container.Names) > 0 {
		return strings.TrimPrefix(container.Names[0], "/")
	}

	return shortID(container.ID)
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}

	return id
}
