package domain

import "strconv"

// APIGroup — группа endpoints AAP, обслуживающая ресурс.
type APIGroup string

const (
	// APIGateway — identity-ресурсы: организации, пользователи, команды.
	APIGateway APIGroup = "Gateway"

	// APIController — ресурсы автоматизации: проекты, шаблоны, jobs и т.д.
	APIController APIGroup = "Controller"
)

// Kind описывает тип ресурса AAP: где он живёт и как его искать по имени.
type Kind struct {
	// Label — человекочитаемое имя в единственном числе ("Job template").
	// Используется в сообщениях об ошибках.
	Label string

	// Plural — имя во множественном числе для сводок ("Templates").
	Plural string

	// API — группа endpoints.
	API APIGroup

	// Path — путь коллекции относительно базового URL API ("job_templates/").
	Path string

	// NameField — поле, по которому ищется точное совпадение имени.
	// Для пользователей это username.
	NameField string
}

// ItemPath возвращает путь конкретного ресурса ("projects/42/").
func (k Kind) ItemPath(id int) string {
	return k.Path + strconv.Itoa(id) + "/"
}

// Известные типы ресурсов.
var (
	Organization = Kind{Label: "Organization", Plural: "Organizations", API: APIGateway, Path: "organizations/", NameField: "name"}
	User         = Kind{Label: "User", Plural: "Users", API: APIGateway, Path: "users/", NameField: "username"}
	Team         = Kind{Label: "Team", Plural: "Teams", API: APIGateway, Path: "teams/", NameField: "name"}

	Project     = Kind{Label: "Project", Plural: "Projects", API: APIController, Path: "projects/", NameField: "name"}
	JobTemplate = Kind{Label: "Job template", Plural: "Templates", API: APIController, Path: "job_templates/", NameField: "name"}
	Inventory   = Kind{Label: "Inventory", Plural: "Inventories", API: APIController, Path: "inventories/", NameField: "name"}
	Credential  = Kind{Label: "Credential", Plural: "Credentials", API: APIController, Path: "credentials/", NameField: "name"}
	Host        = Kind{Label: "Host", Plural: "Hosts", API: APIController, Path: "hosts/", NameField: "name"}
	Job         = Kind{Label: "Job", Plural: "Jobs", API: APIController, Path: "jobs/", NameField: "name"}
	Workflow    = Kind{Label: "Workflow", Plural: "Workflows", API: APIController, Path: "workflow_job_templates/", NameField: "name"}
	WorkflowJob = Kind{Label: "Workflow job", Plural: "Workflow jobs", API: APIController, Path: "workflow_jobs/", NameField: "name"}

	// ControllerOrganization — организация в Controller API. Нужна для
	// операционных полей (max_hosts, счётчики) и для ссылок из ресурсов
	// Controller: id организации в Controller может отличаться от Gateway.
	ControllerOrganization = Kind{Label: "Organization", Plural: "Organizations", API: APIController, Path: "organizations/", NameField: "name"}
	CredentialType         = Kind{Label: "Credential type", Plural: "Credential types", API: APIController, Path: "credential_types/", NameField: "name"}
	HostMetric             = Kind{Label: "Host metric", Plural: "Host metrics", API: APIController, Path: "host_metrics/", NameField: "hostname"}
)

// CountedKinds — типы ресурсов в порядке вывода сводки `aap resource list`.
var CountedKinds = []Kind{
	JobTemplate,
	Project,
	Inventory,
	Host,
	Credential,
	Organization,
	Team,
	User,
}
