package pipeline

import (
	_ "embed"
	"fmt"
	"strings"
)

// Scaffolding injected into theme trees. Kept as standalone files so the
// TSX/JS stays readable and editable.
var (
	//go:embed templates/api_client.ts
	apiClientSource string

	//go:embed templates/login_page.tsx
	loginPageTemplate string

	//go:embed templates/signup_page.tsx
	signupPageTemplate string

	//go:embed templates/identity_bootstrap.tsx
	identityBootstrapSource string

	//go:embed templates/auth_logic.tsx
	authLogicTemplate string

	//go:embed templates/products_logic.tsx
	productsLogicSource string

	//go:embed templates/greeting_logic.tsx
	greetingLogicSource string

	//go:embed templates/default_layout.tsx
	defaultLayoutSource string
)

// authLogic returns the submit-handler block for an auth page, bound to the
// login or signup client call.
func authLogic(signup bool) string {
	action := "loginCustomer(slug, email, password)"
	if signup {
		action = "registerCustomer(slug, name, email, password)"
	}
	return strings.ReplaceAll(authLogicTemplate, "ACTION_PLACEHOLDER", action)
}

// nextConfigSource renders the next.config.js that pins the build to a
// static export served from the upload root. Theme trees carry a basePath so
// router navigation stays inside the export; store trees rely on explicit
// link rebasing instead.
func nextConfigSource(basePath string, withBasePath bool) string {
	var b strings.Builder
	b.WriteString("/** @type {import('next').NextConfig} */\n")
	b.WriteString("const nextConfig = {\n")
	b.WriteString("  output: 'export',\n")
	b.WriteString("  distDir: 'out',\n")
	if withBasePath {
		fmt.Fprintf(&b, "  basePath: '%s',\n", basePath)
	}
	fmt.Fprintf(&b, "  assetPrefix: '%s',\n", basePath)
	b.WriteString("  trailingSlash: true,\n")
	b.WriteString("  staticPageGenerationTimeout: 1000,\n")
	b.WriteString("  images: { unoptimized: true },\n")
	b.WriteString("  eslint: { ignoreDuringBuilds: true },\n")
	b.WriteString("  typescript: { ignoreBuildErrors: true },\n")
	b.WriteString("};\n")
	b.WriteString("module.exports = nextConfig;\n")
	return b.String()
}

// clientPageWrapperSource renders the server-component wrapper written over
// a dynamic-route page whose original content moved to ClientPage.tsx.
func clientPageWrapperSource(param string) string {
	return fmt.Sprintf(`import ClientPage from './ClientPage';

export async function generateStaticParams() {
    return [{ %[1]s: '1' }, { %[1]s: 'p1' }, { %[1]s: 'p2' }];
}

export default function Page(props: any) {
    return <ClientPage {...props} />;
}
`, param)
}

// serverLayoutWrapperSource renders the metadata-carrying server layout that
// delegates rendering to ClientLayout.tsx.
func serverLayoutWrapperSource(metadataBlock string, importMetadataType bool) string {
	var b strings.Builder
	if importMetadataType {
		b.WriteString("import type { Metadata } from \"next\";\n")
	}
	b.WriteString("import ClientLayout from \"./ClientLayout\";\n")
	b.WriteString("import \"./globals.css\";\n\n")
	b.WriteString(metadataBlock)
	b.WriteString("\n\nexport default function RootLayout({ children }: { children: React.ReactNode }) {\n")
	b.WriteString("  return <ClientLayout>{children}</ClientLayout>;\n}\n")
	return b.String()
}
