package scaffolding

// skeletonContext is the data passed to every skeleton template.
type skeletonContext struct {
	Name  string
	Group string
	Page  string
}

const componentHTMLSkeleton = `<link rel="stylesheet" href="/components/{{.Group}}/css/{{.Name}}.css">
<div class="{{.Name}}">
    <p>{{"{{"}}label{{"}}"}}</p>
</div>
<script src="/components/{{.Group}}/js/{{.Name}}.js"></script>
`

const componentCSSSkeleton = `.{{.Name}} {
    display: block;
}
`

const componentJSSkeleton = `// {{.Name}} behavior
`

const componentDescriptorSkeleton = `# Dependency descriptor for components/{{.Group}}/html/{{.Name}}.html
components: {}

dataDependencies: {}

defaultData:
  label: "{{.Name}}"
`

const pageHTMLSkeleton = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>{{"{{"}}title{{"}}"}}</title>
    <link rel="stylesheet" href="/css/globals.css">
    <link rel="stylesheet" href="/pages/{{.Page}}/css/{{.Page}}.css">
</head>
<body>
    <main>
        <h1>{{"{{"}}title{{"}}"}}</h1>
    </main>
    <script src="/js/globals.js"></script>
</body>
</html>
`

const pageCSSSkeleton = `/* styles for the {{.Page}} page */
`

const pageDescriptorSkeleton = `# Dependency descriptor for pages/{{.Page}}/html/{{.Page}}.html
components: {}

dataDependencies: {}

defaultData:
  title: "{{.Page}}"
`
